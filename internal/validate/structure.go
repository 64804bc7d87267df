package validate

import "github.com/ppiankov/incidentcheck/internal/model"

// Report is the combined outcome of front matter and section validation
type Report struct {
	FrontMatter      *model.FrontMatter
	FrontMatterValid bool
	Sections         model.SectionMap
	SectionsValid    bool
	Missing          []string // Required sections not found, in required order
	Additional       []string // Non-required sections, in document order
	Errors           []error
	Warnings         []error
}

// Valid reports whether the draft is structurally sound
func (r *Report) Valid() bool {
	return r.FrontMatterValid && r.SectionsValid && len(r.Errors) == 0
}

// ErrorStrings returns error messages in report order
func (r *Report) ErrorStrings() []string {
	return messages(r.Errors)
}

// WarningStrings returns warning messages in report order
func (r *Report) WarningStrings() []string {
	return messages(r.Warnings)
}

// Check runs every structural check on a draft. It never panics on malformed input.
func Check(content string) *Report {
	r := &Report{}

	fm, errs := ParseFrontMatter(content)
	r.FrontMatter = fm
	r.add(errs)

	var fmErrs []error
	r.FrontMatterValid, fmErrs = ValidateFrontMatter(fm)
	if fm != nil {
		r.add(fmErrs)
	}

	sections, errs := ExtractSections(content)
	r.Sections = sections
	r.add(errs)

	var secErrs []error
	r.SectionsValid, secErrs, r.Missing, r.Additional = ValidateSections(sections)
	r.add(secErrs)

	return r
}

func (r *Report) add(errs []error) {
	for _, err := range errs {
		if IsWarning(err) {
			r.Warnings = append(r.Warnings, err)
		} else {
			r.Errors = append(r.Errors, err)
		}
	}
}

func messages(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
