package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/coursekit/coursekit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var presentationRows = [][]string{
	{"Nom", "Matricule", "Matricule 2", "Formulaire"},
	{"Ada", "1234567", "7654321", "https://forms.gle/abc"},
	{"Chen", "1111111", "", " https://forms.gle/def "},
	{"Dan", "2222222", "2222222", ""},
	{"Eve", "3333333.0", "not-an-id", "https://forms.gle/ghi"},
}

func TestFindPresentation(t *testing.T) {
	cols := PresentationColumns{Matricule: 1, Matricule2: 2, URL: 3}

	tests := []struct {
		name      string
		matricule string
		cols      PresentationColumns
		expected  schema.Presentation
	}{
		{"with co-presenter", "1234567", cols, schema.Presentation{Matricule: "1234567", CoPresenter: "7654321", FormURL: "https://forms.gle/abc"}},
		{"alone", "1111111", cols, schema.Presentation{Matricule: "1111111", FormURL: "https://forms.gle/def"}},
		{"invalid co-presenter ignored", "3333333", cols, schema.Presentation{Matricule: "3333333", FormURL: "https://forms.gle/ghi"}},
		{"co-presenter lookup disabled", "1234567", PresentationColumns{Matricule: 1, Matricule2: -1, URL: 3}, schema.Presentation{Matricule: "1234567", FormURL: "https://forms.gle/abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindPresentation(presentationRows, tt.matricule, tt.cols)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("not found", func(t *testing.T) {
		_, err := FindPresentation(presentationRows, "4444444", cols)
		assert.ErrorIs(t, err, schema.ErrMatriculeNotFound)
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := FindPresentation(presentationRows, "2222222", cols)
		assert.ErrorContains(t, err, "no form URL")
	})
}

func TestMatchForm(t *testing.T) {
	forms := []schema.Form{
		{ID: "f0"},
		{ID: "f1", ResponderURI: "https://docs.google.com/forms/d/e/abc/viewform"},
		{ID: "f2", ResponderURI: "https://docs.google.com/forms/d/e/def/viewform"},
	}

	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"exact", "https://docs.google.com/forms/d/e/def/viewform", "f2"},
		{"query and fragment", "https://docs.google.com/forms/d/e/abc/viewform?usp=send_form#top", "f1"},
		{"trailing slash", "https://docs.google.com/forms/d/e/abc/viewform/", "f1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MatchForm(forms, tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.ID)
		})
	}

	t.Run("not found", func(t *testing.T) {
		_, err := MatchForm(forms, "https://docs.google.com/forms/d/e/zzz/viewform")
		assert.ErrorIs(t, err, schema.ErrFormNotFound)
	})
}

func TestFindQuestion(t *testing.T) {
	q, err := FindQuestion(oralForm, "  Commentaires ")
	require.NoError(t, err)
	assert.Equal(t, "q4", q.ID)

	_, err = FindQuestion(oralForm, "Feedback")
	assert.ErrorIs(t, err, schema.ErrQuestionNotFound)
}

func TestCollectFeedback(t *testing.T) {
	responses := []schema.FormResponse{
		response("r1", "1234567", "7", "7", "Bon rythme"),
		response("r2", "7654321", "6", "6", "   "),
		response("r3", instructorID, "8", "8", "Très clair"),
		response("r4", "1111111", "5", "5", "Plus d'exemples"),
	}

	t.Run("by matricule question", func(t *testing.T) {
		got := CollectFeedback(oralForm, responses, "q4", "q1", instructorID, nil)
		assert.Equal(t, []string{"Très clair", "Bon rythme", "Plus d'exemples"}, got)
	})

	t.Run("by answer shape", func(t *testing.T) {
		got := CollectFeedback(oralForm, responses, "q4", "", instructorID, nil)
		assert.Equal(t, []string{"Très clair", "Bon rythme", "Plus d'exemples"}, got)
	})

	t.Run("no feedback", func(t *testing.T) {
		assert.Empty(t, CollectFeedback(oralForm, responses[1:2], "q4", "q1", instructorID, nil))
	})
}

func TestLookupEmail(t *testing.T) {
	roster := []schema.RosterEntry{
		{Matricule: "1234567", Email: ""},
		{Matricule: "1234567", Email: "ada@example.com"},
	}
	email, err := LookupEmail(roster, "1234567")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)

	_, err = LookupEmail(roster, "7654321")
	assert.ErrorIs(t, err, schema.ErrEmailNotFound)
}

func TestBuildFeedbackMessage(t *testing.T) {
	t.Run("feedback only", func(t *testing.T) {
		msg := BuildFeedbackMessage("ada@example.com", []string{"Très clair", "Bon rythme"}, nil, MessageOptions{
			CourseCode:     "GBM6904",
			InstructorName: "Prof. Tremblay",
			Precision:      2,
		})
		assert.Equal(t, []string{"ada@example.com"}, msg.To)
		assert.Equal(t, "[GBM6904] Feedback sur ta présentation orale", msg.Subject)
		assert.True(t, strings.HasPrefix(msg.Body, "Bonjour,\n\n"))
		assert.Contains(t, msg.Body, "dans le cadre du cours GBM6904.")
		assert.Contains(t, msg.Body, "- Très clair\n- Bon rythme\n")
		assert.True(t, strings.HasSuffix(msg.Body, "\nProf. Tremblay\n"))
		assert.NotContains(t, msg.Body, "critère")
	})

	t.Run("with criteria", func(t *testing.T) {
		criteria := []schema.CriterionAverage{{Title: "Clarté", Weighted: 7.26}}
		msg := BuildFeedbackMessage("ada@example.com", nil, criteria, MessageOptions{InstructorWeight: 0.75, Precision: 1})
		assert.Equal(t, "[cours] Feedback sur ta présentation orale", msg.Subject)
		assert.Contains(t, msg.Body, "75% enseignant, 25% moyenne de la classe")
		assert.Contains(t, msg.Body, "- Clarté : 7.3\n")
		assert.Equal(t, criteria, msg.Criteria)
	})
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
		wantErr  bool
	}{
		{"enter confirms", "\n", true, false},
		{"spaces confirm", "   \n", true, false},
		{"text cancels", "no\n", false, false},
		{"last line without newline", "stop", false, false},
		{"closed input", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := NewPromptConfirmer(strings.NewReader(tt.input), &out).Confirm("Send? ")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, "Send? ", out.String())
		})
	}

	ok, err := AlwaysConfirm{}.Confirm("anything")
	require.NoError(t, err)
	assert.True(t, ok)
}
