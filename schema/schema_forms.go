package schema

// Question is a single item of a form.
type Question struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Form is the subset of form metadata needed for grading and feedback.
type Form struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	ResponderURI string     `json:"responder_uri"`
	Questions    []Question `json:"questions"`
}

// FormResponse maps question IDs to the text answer given in one submission.
type FormResponse struct {
	ResponseID string            `json:"response_id"`
	Answers    map[string]string `json:"answers"`
}

// ClassifiedResponse is a response split into its matricule, scores and comments.
type ClassifiedResponse struct {
	ResponseID string   `json:"response_id"`
	Matricule  string   `json:"matricule"`
	Instructor bool     `json:"instructor"`
	Scores     []int    `json:"scores"`
	Comments   []string `json:"comments"`
}

// Total returns the sum of all scores in the response.
func (c ClassifiedResponse) Total() int {
	total := 0
	for _, s := range c.Scores {
		total += s
	}
	return total
}

// OralGrade is the weighted grade of one presentation form.
type OralGrade struct {
	FormID          string  `json:"form_id"`
	Students        string  `json:"students"`
	InstructorGrade float64 `json:"instructor_grade"`
	PeerMean        float64 `json:"peer_mean"`
	PeerCount       int     `json:"peer_count"`
	Grade           float64 `json:"grade"`
}

// CriterionAverage is the weighted average of a single grading criterion.
type CriterionAverage struct {
	Title      string  `json:"title"`
	Instructor float64 `json:"instructor"`
	PeerMean   float64 `json:"peer_mean"`
	Weighted   float64 `json:"weighted"`
}

// Presentation identifies the sheet row of a presenter.
type Presentation struct {
	Matricule   string `json:"matricule"`
	CoPresenter string `json:"co_presenter,omitempty"`
	FormURL     string `json:"form_url"`
}

// FeedbackMessage is an email ready to be confirmed and sent.
type FeedbackMessage struct {
	To       []string           `json:"to"`
	Subject  string             `json:"subject"`
	Body     string             `json:"body"`
	Feedback []string           `json:"feedback"`
	Criteria []CriterionAverage `json:"criteria,omitempty"`
}

// RosterEntry is one student row of the class roster.
type RosterEntry struct {
	Matricule string `json:"matricule"`
	Email     string `json:"email"`
}

// Attachment is a file attached to an outgoing email.
type Attachment struct {
	Name    string
	Content []byte
}

// Email is a transport-neutral outgoing message.
type Email struct {
	To          []string
	Cc          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// AbstractOutcome is what happened to one student of an abstract batch.
type AbstractOutcome struct {
	Matricule  string `json:"matricule"`
	Email      string `json:"email"`
	Attachment string `json:"attachment,omitempty"`
	Sent       bool   `json:"sent"`
}
