package core

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
)

// PresentationColumns locates the presenter and form URL columns of the presentation sheet (0-based).
// Matricule2 < 0 disables the co-presenter lookup.
type PresentationColumns struct {
	Matricule  int
	Matricule2 int
	URL        int
}

// FindPresentation returns the first sheet row whose presenter column equals matricule.
func FindPresentation(rows [][]string, matricule string, cols PresentationColumns) (schema.Presentation, error) {
	for _, row := range rows {
		if cols.Matricule >= len(row) || schema.NormalizeID(row[cols.Matricule]) != matricule {
			continue
		}
		if cols.URL >= len(row) || strings.TrimSpace(row[cols.URL]) == "" {
			return schema.Presentation{}, fmt.Errorf("row of %s has no form URL", matricule)
		}
		p := schema.Presentation{
			Matricule: matricule,
			FormURL:   strings.TrimSpace(row[cols.URL]),
		}
		if cols.Matricule2 >= 0 && cols.Matricule2 < len(row) {
			if co := schema.NormalizeID(row[cols.Matricule2]); schema.IsValidMatricule(co) && co != matricule {
				p.CoPresenter = co
			}
		}
		return p, nil
	}
	return schema.Presentation{}, fmt.Errorf("%s: %w", matricule, schema.ErrMatriculeNotFound)
}

// canonicalFormURL drops the query, fragment and trailing slash so that a responder URI
// matches the address a short link redirects to.
func canonicalFormURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// MatchForm returns the form whose responder URI is the given URL.
func MatchForm(forms []schema.Form, formURL string) (schema.Form, error) {
	target := canonicalFormURL(formURL)
	for _, f := range forms {
		if f.ResponderURI != "" && canonicalFormURL(f.ResponderURI) == target {
			return f, nil
		}
	}
	return schema.Form{}, fmt.Errorf("%s: %w", formURL, schema.ErrFormNotFound)
}

// FindQuestion returns the question of a form with the given title.
func FindQuestion(form schema.Form, title string) (schema.Question, error) {
	want := strings.TrimSpace(title)
	for _, q := range form.Questions {
		if strings.TrimSpace(q.Title) == want {
			return q, nil
		}
	}
	return schema.Question{}, fmt.Errorf("%q in form %s: %w", title, form.ID, schema.ErrQuestionNotFound)
}

// CollectFeedback gathers the non-empty answers to the feedback question. Instructor feedback
// comes first, then peer feedback in response order. When matriculeQID is empty the evaluator
// is recognized from the shape of its answers.
func CollectFeedback(form schema.Form, responses []schema.FormResponse, feedbackQID, matriculeQID, instructorMatricule string, log *contract.Logger) []string {
	var instructor, peers []string
	for _, resp := range responses {
		feedback := strings.TrimSpace(resp.Answers[feedbackQID])
		if feedback == "" {
			continue
		}
		isInstructor := false
		if matriculeQID != "" {
			isInstructor = strings.TrimSpace(resp.Answers[matriculeQID]) == instructorMatricule
		} else if c, err := ClassifyResponse(resp, form.Questions, instructorMatricule, log); err == nil {
			isInstructor = c.Instructor
		}
		if isInstructor {
			instructor = append(instructor, feedback)
		} else {
			peers = append(peers, feedback)
		}
	}
	return append(instructor, peers...)
}

// LookupEmail returns the roster email of a matricule.
func LookupEmail(roster []schema.RosterEntry, matricule string) (string, error) {
	for _, entry := range roster {
		if entry.Matricule == matricule && entry.Email != "" {
			return entry.Email, nil
		}
	}
	return "", fmt.Errorf("%s: %w", matricule, schema.ErrEmailNotFound)
}

// MessageOptions personalizes the feedback email.
type MessageOptions struct {
	CourseCode       string
	InstructorName   string
	InstructorWeight float64
	Precision        int
}

// BuildFeedbackMessage renders the feedback email for one recipient.
func BuildFeedbackMessage(to string, feedback []string, criteria []schema.CriterionAverage, opts MessageOptions) schema.FeedbackMessage {
	course := opts.CourseCode
	if course == "" {
		course = "cours"
	}

	var b strings.Builder
	b.WriteString("Bonjour,\n\n")
	fmt.Fprintf(&b, "Voici le résultat de la présentation que tu as donnée dans le cadre du cours %s.\n\n", course)
	if len(criteria) > 0 {
		fmt.Fprintf(&b, "Voici tes notes par critère (pondération : %.0f%% enseignant, %.0f%% moyenne de la classe) :\n\n",
			opts.InstructorWeight*100, (1-opts.InstructorWeight)*100)
		for _, c := range criteria {
			fmt.Fprintf(&b, "- %s : %.*f\n", c.Title, opts.Precision, c.Weighted)
		}
		b.WriteString("\n")
	}
	b.WriteString("Et voici le feedback de l'enseignant suivi du feedback des étudiants:\n\n")
	for _, f := range feedback {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	if opts.InstructorName != "" {
		fmt.Fprintf(&b, "\n%s\n", opts.InstructorName)
	}

	return schema.FeedbackMessage{
		To:       []string{to},
		Subject:  fmt.Sprintf("[%s] Feedback sur ta présentation orale", course),
		Body:     b.String(),
		Feedback: feedback,
		Criteria: criteria,
	}
}

// PromptConfirmer asks for confirmation on a terminal. An empty line confirms.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ contract.Confirmer = &PromptConfirmer{} // Compile-time check

// NewPromptConfirmer returns a confirmer reading answers from in and prompting on out.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm implements contract.Confirmer.
func (p *PromptConfirmer) Confirm(prompt string) (bool, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return false, err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "", nil
}

// AlwaysConfirm approves every prompt.
type AlwaysConfirm struct{}

// Confirm implements contract.Confirmer.
func (AlwaysConfirm) Confirm(string) (bool, error) { return true, nil }
