package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/incidentcheck/internal/model"
)

// frontMatterValidate checks FrontMatter struct tags; field names come from yaml tags
var frontMatterValidate *validator.Validate

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func init() {
	frontMatterValidate = validator.New(validator.WithRequiredStructEnabled())
	frontMatterValidate.RegisterTagNameFunc(yamlFieldName)
	_ = frontMatterValidate.RegisterValidation("yyyymmdd", validateDate)
}

func yamlFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// validateDate accepts YYYY-MM-DD strings that name a real calendar day
func validateDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// Key spellings accepted for each recognized field
var (
	dateKeys       = []string{"date"}
	titleKeys      = []string{"title"}
	targetKeys     = []string{"target", "targets", "entities"}
	entityTypeKeys = []string{"entity_types", "entity-types", "entityTypes"}
	attackTypeKeys = []string{"attack_type", "attack-type", "attackType"}
	lossKeys       = []string{"loss", "losses", "amount_lost"}
	recognizedKeys = concat(dateKeys, titleKeys, targetKeys, entityTypeKeys, attackTypeKeys, lossKeys)
)

const frontMatterDelimiter = "---"

// SplitFrontMatter separates a leading "---" delimited block from the body.
// ok is false when the document does not start with a front matter block.
func SplitFrontMatter(text string) (block, body string, ok bool, err error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	first, rest, found := strings.Cut(text, "\n")
	if strings.TrimRight(first, " \t") != frontMatterDelimiter {
		return "", text, false, nil
	}
	if !found {
		return "", text, false, fmt.Errorf("front matter block is not closed")
	}

	offset := 0
	for {
		line, next, more := strings.Cut(rest[offset:], "\n")
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == frontMatterDelimiter || trimmed == "..." {
			return rest[:offset], next, true, nil
		}
		if !more {
			return "", text, false, fmt.Errorf("front matter block is not closed")
		}
		offset += len(line) + 1
	}
}

// StripFrontMatter returns the document body without its front matter block
func StripFrontMatter(text string) string {
	_, body, _, err := SplitFrontMatter(text)
	if err != nil {
		return strings.ReplaceAll(text, "\r\n", "\n")
	}
	return body
}

// ParseFrontMatter decodes the leading metadata block into a record.
// A missing or unparsable block yields a nil record and an error.
func ParseFrontMatter(text string) (*model.FrontMatter, []error) {
	block, _, ok, err := SplitFrontMatter(text)
	if err != nil {
		return nil, []error{structural("", err.Error())}
	}
	if !ok {
		return nil, []error{structural("", "missing front matter block (expected --- at document start)")}
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return nil, []error{structural("", fmt.Sprintf("invalid front matter YAML: %v", err))}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	return recordFromMap(raw), nil
}

func recordFromMap(raw map[string]any) *model.FrontMatter {
	fm := &model.FrontMatter{
		Date:        scalarString(lookup(raw, dateKeys)),
		Title:       scalarString(lookup(raw, titleKeys)),
		Target:      stringList(lookup(raw, targetKeys)),
		EntityTypes: stringList(lookup(raw, entityTypeKeys)),
		AttackType:  scalarString(lookup(raw, attackTypeKeys)),
	}

	if v := lookup(raw, lossKeys); v != nil {
		fm.RawLoss = v
		if f, ok := toFloat(v); ok {
			fm.Loss = &f
		}
	}

	for k, v := range raw {
		if !contains(recognizedKeys, k) {
			if fm.Extra == nil {
				fm.Extra = map[string]any{}
			}
			fm.Extra[k] = v
		}
	}

	return fm
}

// ValidateFrontMatter reports one error per failed invariant
func ValidateFrontMatter(fm *model.FrontMatter) (bool, []error) {
	if fm == nil {
		return false, []error{structural("", "missing front matter block (expected --- at document start)")}
	}

	var errs []error
	if err := frontMatterValidate.Struct(fm); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return false, []error{structural("", err.Error())}
		}
		for _, fe := range verrs {
			errs = append(errs, translateFieldError(fe))
		}
	}

	switch {
	case fm.RawLoss == nil:
		errs = append(errs, structural("loss", "missing required field: loss"))
	case fm.Loss == nil:
		errs = append(errs, structural("loss", "loss must be a number"))
	}

	return len(errs) == 0, errs
}

func translateFieldError(fe validator.FieldError) error {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return structural(field, "missing required field: "+field)
	case "yyyymmdd":
		return structural(field, fmt.Sprintf("invalid date format: %v (expected YYYY-MM-DD)", fe.Value()))
	case "min":
		return structural(field, field+" must be a non-empty list")
	default:
		return structural(field, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
	}
}

func lookup(raw map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// scalarString renders a YAML scalar; dates decoded as timestamps keep their day form
func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// stringList accepts a single string or a list. A missing key stays nil so it
// can be told apart from an explicit empty list.
func stringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		s := scalarString(val)
		if s == "" {
			return nil
		}
		return []string{s}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
