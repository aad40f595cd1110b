// Package validate holds request-payload validation for the HTTP surface.
package validate

import (
	"fmt"
	"net/url"

	"github.com/keepstack/keepstack/internal/model"
)

var itemTypes = map[model.ItemType]bool{
	model.ItemTypeArticle:  true,
	model.ItemTypeVideo:    true,
	model.ItemTypeImage:    true,
	model.ItemTypeBook:     true,
	model.ItemTypeDocument: true,
	model.ItemTypeWebpage:  true,
	model.ItemTypeAudio:    true,
	model.ItemTypeNote:     true,
}

var itemStatuses = map[model.ItemStatus]bool{
	model.StatusPending:    true,
	model.StatusProcessing: true,
	model.StatusProcessed:  true,
	model.StatusError:      true,
}

// Capture validates a raw capture payload before it becomes an item.
func Capture(p model.CapturePayload) error {
	if err := NonEmpty("title", p.Title); err != nil {
		return err
	}
	if len(p.Title) > 500 {
		return fmt.Errorf("title exceeds 500 characters")
	}
	if p.Type != "" && !itemTypes[p.Type] {
		return fmt.Errorf("unknown item type: %s", p.Type)
	}
	if p.IsPhysical {
		return nil
	}
	if err := NonEmpty("url", p.URL); err != nil {
		return err
	}
	u, err := url.Parse(p.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("url must be absolute")
	}
	return nil
}

// Enrich validates the AI collaborator's update payload.
func Enrich(p model.EnrichPayload) error {
	if p.Status != "" && !itemStatuses[p.Status] {
		return fmt.Errorf("unknown status: %s", p.Status)
	}
	if err := MaxLen("summary", p.Summary, 5000); err != nil {
		return err
	}
	return MaxLen("notes", p.Notes, 10000)
}

// ItemType reports whether a type tag belongs to the closed set.
func ItemType(t model.ItemType) bool { return itemTypes[t] }

// ItemStatus reports whether a status belongs to the closed set.
func ItemStatus(s model.ItemStatus) bool { return itemStatuses[s] }

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}
