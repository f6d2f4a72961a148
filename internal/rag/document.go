package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/catalog"
	"github.com/mwiater/nabin/internal/rag/store"
)

// unspecifiedMood is shown in place of a missing mood.
const unspecifiedMood = "Không rõ"

// DocumentText renders the sentence that is embedded for a venue.
func DocumentText(v catalog.VenueRecord) string {
	mood := v.Mood
	if !v.HasMood() {
		mood = unspecifiedMood
	}
	return fmt.Sprintf("Tên quán: %s. Địa chỉ: %s. Mood/Không gian: %s. Ghi chú món: %s",
		v.Name, v.Address, mood, v.Notes)
}

// DocumentID assigns the id for the venue at position i.
func DocumentID(scheme string, i int, v catalog.VenueRecord) string {
	if scheme == appconfig.IDSchemeContent {
		key := strings.ToLower(v.Name) + "|" + strings.ToLower(v.Address)
		sum := sha256.Sum256([]byte(key))
		return "place_" + hex.EncodeToString(sum[:])[:16]
	}
	return fmt.Sprintf("place_%d", i)
}

// BuildDocuments converts venue records into documents ready for embedding.
// When two records map to the same id the later one wins.
func BuildDocuments(records []catalog.VenueRecord, scheme string) []store.Document {
	docs := make([]store.Document, 0, len(records))
	position := make(map[string]int, len(records))
	for i, v := range records {
		doc := store.Document{
			ID:   DocumentID(scheme, i, v),
			Text: DocumentText(v),
			Metadata: store.Metadata{
				Name:    v.Name,
				Address: v.Address,
				Map:     v.MapURL(),
			},
		}
		if at, ok := position[doc.ID]; ok {
			docs[at] = doc
			continue
		}
		position[doc.ID] = len(docs)
		docs = append(docs, doc)
	}
	return docs
}
