// Package validate checks request payloads before they reach the services.
package validate

import (
	"fmt"
	"regexp"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var regionRx = regexp.MustCompile(`^[A-Za-z]{2}$`)

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email %q", v)
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// RegionCode checks the two-letter shape only; whether the region exists is
// the eligibility check's concern.
func RegionCode(v string) error {
	if v == "" {
		return fmt.Errorf("state is required")
	}
	if !regionRx.MatchString(v) {
		return fmt.Errorf("state must be a 2-letter code")
	}
	return nil
}

// OrderPayload is a decoded POST /order body.
type OrderPayload struct {
	State      string
	Kind       model.RegionKind
	Plaintiffs []string
	Defendants []string
	Notify     bool
	Email      string
	FirstName  string
	LastName   string
	// Extra holds every field outside the fixed order shape.
	Extra map[string]any
}

// Order validates a raw JSON object and splits it into the fixed order fields
// and the pass-through extras. Email may be empty; callers fall back to the
// authenticated caller.
func Order(raw map[string]any) (*OrderPayload, error) {
	if raw == nil {
		return nil, fmt.Errorf("body must be a JSON object")
	}
	p := &OrderPayload{Kind: model.RegionJurisdiction, Extra: map[string]any{}}
	var err error

	if p.State, err = optString(raw, "state"); err != nil {
		return nil, err
	}
	if err := RegionCode(p.State); err != nil {
		return nil, err
	}
	kind, err := optString(raw, "kind")
	if err != nil {
		return nil, err
	}
	if kind != "" {
		p.Kind = model.RegionKind(kind)
		if !p.Kind.Valid() {
			return nil, fmt.Errorf("kind must be %q or %q", model.RegionJurisdiction, model.RegionCourt)
		}
	}

	if p.Plaintiffs, err = emailList(raw, "plaintiffs"); err != nil {
		return nil, err
	}
	if p.Defendants, err = emailList(raw, "defendants"); err != nil {
		return nil, err
	}
	if len(p.Plaintiffs)+len(p.Defendants) == 0 {
		return nil, fmt.Errorf("at least one plaintiff or defendant is required")
	}

	if v, ok := raw["notify"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("notify must be a boolean")
		}
		p.Notify = b
	}

	if p.Email, err = optString(raw, "email"); err != nil {
		return nil, err
	}
	if p.Email != "" {
		if err := Email(p.Email); err != nil {
			return nil, fmt.Errorf("email: %w", err)
		}
	}

	for k, v := range raw {
		if !model.IsReservedOrderKey(k) {
			p.Extra[k] = v
		}
	}
	// names are informational; a non-string is ignored
	p.FirstName, _ = raw["firstName"].(string)
	p.LastName, _ = raw["lastName"].(string)
	return p, nil
}

func optString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s, nil
}

func emailList(raw map[string]any, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of emails", key)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", key, i)
		}
		if err := Email(s); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Notification validates a POST /notification body.
func Notification(email, title, content string) error {
	if err := Email(email); err != nil {
		return err
	}
	if err := NonEmpty("title", title); err != nil {
		return err
	}
	return NonEmpty("content", content)
}

// VerifyEmail validates a POST /user/verify-email body.
func VerifyEmail(email, code string) error {
	if err := Email(email); err != nil {
		return err
	}
	return NonEmpty("code", code)
}
