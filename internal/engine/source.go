package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/google/uuid"
	"github.com/tartampluch/go-celebrations/internal/config"
)

// contactNamespace seeds the name-based UUIDs of contacts without a UID.
var contactNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte(config.UIDNamespace))

// decodeVCards reads every card of a vCard stream.
//
// A card whose BDAY or ANNIVERSARY cannot be parsed stops decoding with an
// error naming the contact: incomplete upcoming lists are worse than none.
func decodeVCards(ctx context.Context, r io.Reader) ([]Contact, error) {
	decoder := vcard.NewDecoder(r)
	contacts := make([]Contact, 0)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
		}

		c, err := contactFromCard(card)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	return contacts, nil
}

// contactFromCard maps one vCard. Name strategy: FN > N > fallback.
func contactFromCard(card vcard.Card) (Contact, error) {
	c := Contact{Name: config.FallbackName}
	if fn := card.Get(config.VCardFN); fn != nil && fn.Value != "" {
		c.Name = fn.Value
	} else if n := card.Get(config.VCardN); n != nil && n.Value != "" {
		c.Name = n.Value
	}

	c.Email = cardValue(card, config.VCardEmail)
	c.WhatsApp = cardValue(card, config.VCardTel)

	var err error
	if c.Birthday, err = parseOptionalMonthDay(cardValue(card, config.VCardBDAY)); err != nil {
		return Contact{}, fmt.Errorf("%s %q (%s): %w", config.ErrContactDate, c.Name, EventBirthday, err)
	}

	anniversary := cardValue(card, config.VCardAnniversary)
	if anniversary == "" {
		anniversary = cardValue(card, config.VCardXAnniversary)
	}
	if c.Anniversary, err = parseOptionalMonthDay(anniversary); err != nil {
		return Contact{}, fmt.Errorf("%s %q (%s): %w", config.ErrContactDate, c.Name, EventAnniversary, err)
	}

	c.ID = cardValue(card, config.VCardUID)
	if c.ID == "" {
		c.ID = stableContactID(c)
	}

	return c, nil
}

func cardValue(card vcard.Card, key string) string {
	if f := card.Get(key); f != nil {
		return strings.TrimSpace(f.Value)
	}
	return ""
}

// stableContactID derives a deterministic identifier so list identity
// survives refreshes of sources that carry no UID.
func stableContactID(c Contact) string {
	input := fmt.Sprintf(config.FormatHashInput, c.Name, formatOptional(c.Birthday), formatOptional(c.Anniversary))
	return uuid.NewSHA1(contactNamespace, []byte(input)).String()
}

func formatOptional(md *MonthDay) string {
	if md == nil {
		return ""
	}
	return md.String()
}

// contactRecord is the wire shape of one contact of the REST collaborator.
type contactRecord struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           *string `json:"email"`
	WhatsApp        *string `json:"whatsapp"`
	Birthday        *string `json:"birthday"`
	AnniversaryDate *string `json:"anniversary_date"`
	CreatedAt       *string `json:"created_at"`
}

// decodeAPIContacts decodes the JSON array returned by the contacts API.
// Dates are converted to MonthDay here so nothing downstream sees strings.
func decodeAPIContacts(r io.Reader) ([]Contact, error) {
	var records []contactRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrAPIDecode, err)
	}

	contacts := make([]Contact, 0, len(records))
	for _, rec := range records {
		c, err := rec.toContact()
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func (rec contactRecord) toContact() (Contact, error) {
	c := Contact{
		ID:       rec.ID,
		Name:     strings.TrimSpace(rec.Name),
		Email:    deref(rec.Email),
		WhatsApp: deref(rec.WhatsApp),
	}
	if c.Name == "" {
		c.Name = config.FallbackName
	}

	var err error
	if c.Birthday, err = parseOptionalMonthDay(deref(rec.Birthday)); err != nil {
		return Contact{}, fmt.Errorf("%s %q (%s): %w", config.ErrContactDate, c.Name, EventBirthday, err)
	}
	if c.Anniversary, err = parseOptionalMonthDay(deref(rec.AnniversaryDate)); err != nil {
		return Contact{}, fmt.Errorf("%s %q (%s): %w", config.ErrContactDate, c.Name, EventAnniversary, err)
	}

	if created := deref(rec.CreatedAt); created != "" {
		c.CreatedAt = parseTimestamp(created)
	}
	if c.ID == "" {
		c.ID = stableContactID(c)
	}
	return c, nil
}

// parseTimestamp accepts RFC3339 and the zone-less ISO form some backends
// emit. Creation time is display metadata, so an unknown layout yields zero.
func parseTimestamp(value string) time.Time {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}
	for _, l := range layouts {
		if t, err := time.Parse(l, value); err == nil {
			return t
		}
	}
	slog.Debug("Ignoring unparseable creation time",
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyValue, value)
	return time.Time{}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
