package assistant

import (
	"fmt"
	"strings"
)

// FallbackMarker is the phrase the model must say before suggesting a place
// that is not in the retrieved list.
const FallbackMarker = "Em không thấy trong danh sách quán quen"

// Persona names the assistant and the person it talks to.
type Persona struct {
	AssistantName string
	UserName      string
}

var personaPrompt = `Bạn là %[1]s, trợ lý người yêu ảo cực kỳ dễ thương của %[2]s.
Nhiệm vụ: Tư vấn địa điểm ăn uống dựa trên danh sách sau đây.`

var rulesPrompt = `Yêu cầu:
- Trả lời giọng điệu cute, quan tâm (gọi là 'anh', xưng 'em' hoặc '%[1]s').
- Nếu tìm thấy quán, hãy tóm tắt tại sao quán đó phù hợp.
- Nếu không thấy quán phù hợp trong danh sách, hãy gợi ý dựa trên kiến thức chung nhưng nói rõ là "%[2]s, nhưng em biết chỗ này...".`

var noMatchPrompt = `Danh sách đang trống: không có quán quen nào khớp với yêu cầu này.
Bắt buộc mở đầu câu trả lời bằng "%s" trước khi gợi ý bất kỳ chỗ nào khác.`

const emptyListLine = "(không có quán nào)"

// SystemInstruction renders the full instruction for one query. The
// assembled context is embedded verbatim.
func SystemInstruction(p Persona, assembledContext string) string {
	name := p.AssistantName
	if name == "" {
		name = "NABIN"
	}
	user := p.UserName
	if user == "" {
		user = "Thanh Huy"
	}
	nickname := DisplayName(name)

	var b strings.Builder
	fmt.Fprintf(&b, personaPrompt, name, user)
	b.WriteString("\n\nDanh sách quán tìm được:\n")
	if strings.TrimSpace(assembledContext) == "" {
		b.WriteString(emptyListLine)
		b.WriteString("\n\n")
		fmt.Fprintf(&b, noMatchPrompt, FallbackMarker)
	} else {
		b.WriteString(assembledContext)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, rulesPrompt, nickname, FallbackMarker)
	return b.String()
}

// DisplayName is the persona name as used in conversation: an all-caps name
// such as "NABIN" becomes "Nabin", other names are kept as written.
func DisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Nabin"
	}
	if strings.ToUpper(name) != name {
		return name
	}
	runes := []rune(strings.ToLower(name))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}
