package models

import (
	"net/url"
	"strconv"
	"strings"
)

// TimeLayout is the local-time format used for the created/updated stamps.
const TimeLayout = "2006-01-02 15:04:05"

// Record is a single household resettlement entry. Every field is always
// present; partially submitted forms are filled out by Reconcile so stored
// records never need presence checks when rendered.
type Record struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Epic         string   `json:"epic"`
	PS           string   `json:"ps"`
	OldHouse     string   `json:"old_house"`
	NewHouse     string   `json:"new_house"`
	Payment      float64  `json:"payment"`
	Paid         string   `json:"paid"`
	Complete     string   `json:"complete"`
	WifeName     string   `json:"wife_name"`
	WifeEpic     string   `json:"wife_epic"`
	WifePayment  float64  `json:"wife_payment"`
	WifePaid     string   `json:"wife_paid"`
	WifeComplete string   `json:"wife_complete"`
	Remark       string   `json:"remark"`
	Attachments  []string `json:"attachments"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// fieldSetters maps each canonical form key to the assignment it performs.
// Keys outside this table are ignored by Reconcile.
var fieldSetters = map[string]func(*Record, string){
	"name":          func(r *Record, v string) { r.Name = strings.TrimSpace(v) },
	"epic":          func(r *Record, v string) { r.Epic = strings.TrimSpace(v) },
	"ps":            func(r *Record, v string) { r.PS = strings.TrimSpace(v) },
	"old_house":     func(r *Record, v string) { r.OldHouse = strings.TrimSpace(v) },
	"new_house":     func(r *Record, v string) { r.NewHouse = strings.TrimSpace(v) },
	"payment":       func(r *Record, v string) { r.Payment = ParseAmount(v) },
	"paid":          func(r *Record, v string) { r.Paid = strings.TrimSpace(v) },
	"complete":      func(r *Record, v string) { r.Complete = strings.TrimSpace(v) },
	"wife_name":     func(r *Record, v string) { r.WifeName = strings.TrimSpace(v) },
	"wife_epic":     func(r *Record, v string) { r.WifeEpic = strings.TrimSpace(v) },
	"wife_payment":  func(r *Record, v string) { r.WifePayment = ParseAmount(v) },
	"wife_paid":     func(r *Record, v string) { r.WifePaid = strings.TrimSpace(v) },
	"wife_complete": func(r *Record, v string) { r.WifeComplete = strings.TrimSpace(v) },
	"remark":        func(r *Record, v string) { r.Remark = v },
}

// FormFields lists the canonical form keys in their fixed order.
var FormFields = []string{
	"name", "epic", "ps", "old_house", "new_house",
	"payment", "paid", "complete",
	"wife_name", "wife_epic", "wife_payment", "wife_paid", "wife_complete",
	"remark",
}

// Defaults returns a structurally complete record with every field at its
// default (empty string / zero).
func Defaults() Record {
	return Record{}
}

// Reconcile merges submitted form values onto base and returns the result.
// A canonical key present in form overrides the base value; absent keys keep
// the base value; keys outside the canonical set are ignored. Identifier,
// attachments and timestamps are never touched by form input. The merge is
// deterministic and leaves base unmodified.
func Reconcile(base Record, form url.Values) Record {
	out := base
	for _, key := range FormFields {
		vs, ok := form[key]
		if !ok {
			continue
		}
		v := ""
		if len(vs) > 0 {
			v = vs[0]
		}
		fieldSetters[key](&out, v)
	}
	return out
}

// ParseAmount coerces a submitted payment value to a non-negative amount.
// Non-numeric, absent and negative input all become zero.
func ParseAmount(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// NormalizeAttachments converts a decoded attachments value into a string
// list. Records written by older variants stored a single public address as
// a bare string; decoders hand that (or a generic array) through here before
// any list operation.
func NormalizeAttachments(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
