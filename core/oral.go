package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
)

// ClassifyAnswer tells what a single answer holds. Responses list their answers in no
// particular order, so the evaluator's matricule is recognized by its shape.
func ClassifyAnswer(answer, instructorMatricule string) schema.AnswerKind {
	switch {
	case answer == instructorMatricule:
		return schema.InstructorAnswer
	case schema.IsValidMatricule(answer):
		return schema.MatriculeAnswer
	case schema.IsDigits(answer):
		return schema.ScoreAnswer
	default:
		return schema.CommentAnswer
	}
}

// orderedAnswers returns the answers of a response in form question order, followed by
// answers to questions missing from the form sorted by question ID.
func orderedAnswers(resp schema.FormResponse, questions []schema.Question) []string {
	answers := make([]string, 0, len(resp.Answers))
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
		if a, ok := resp.Answers[q.ID]; ok {
			answers = append(answers, a)
		}
	}
	var extra []string
	for id := range resp.Answers {
		if _, ok := known[id]; !ok {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	for _, id := range extra {
		answers = append(answers, resp.Answers[id])
	}
	return answers
}

// ClassifyResponse splits a response into the evaluator's matricule, scores and comments.
// A response without any matricule is an error.
func ClassifyResponse(resp schema.FormResponse, questions []schema.Question, instructorMatricule string, log *contract.Logger) (schema.ClassifiedResponse, error) {
	out := schema.ClassifiedResponse{ResponseID: resp.ResponseID}
	for _, raw := range orderedAnswers(resp, questions) {
		answer := strings.TrimSpace(raw)
		if answer == "" {
			continue
		}
		switch ClassifyAnswer(answer, instructorMatricule) {
		case schema.InstructorAnswer:
			out.Matricule = answer
			out.Instructor = true
		case schema.MatriculeAnswer:
			if out.Matricule != "" {
				log.Warnf("Response %s holds more than one matricule, keeping %s", resp.ResponseID, out.Matricule)
				continue
			}
			out.Matricule = answer
		case schema.ScoreAnswer:
			score, err := strconv.Atoi(answer)
			if err != nil {
				return out, fmt.Errorf("response %s: invalid score %q: %w", resp.ResponseID, answer, err)
			}
			out.Scores = append(out.Scores, score)
		default:
			log.Debugf("Comment: %s", answer)
			out.Comments = append(out.Comments, answer)
		}
	}
	if out.Matricule == "" {
		return out, fmt.Errorf("response %s: %w", resp.ResponseID, schema.ErrMissingMatricule)
	}
	return out, nil
}

// WeightedAverage combines the instructor value with the mean of the peer values.
// With no peers the instructor value is returned and ok is false.
func WeightedAverage(instructor float64, peers []float64, instructorWeight float64) (avg, peerMean float64, ok bool) {
	if len(peers) == 0 {
		return instructor, 0, false
	}
	sum := 0.0
	for _, p := range peers {
		sum += p
	}
	peerMean = sum / float64(len(peers))
	return instructorWeight*instructor + (1-instructorWeight)*peerMean, peerMean, true
}

// GradeOptions controls how a presentation form is graded.
type GradeOptions struct {
	InstructorMatricule string
	InstructorWeight    float64
	TitlePrefix         string
}

// GradeForm computes the weighted grade of one presentation form from its responses.
// Each response is graded as the sum of its scores.
func GradeForm(form schema.Form, responses []schema.FormResponse, opts GradeOptions, log *contract.Logger) (schema.OralGrade, error) {
	grade := schema.OralGrade{
		FormID:   form.ID,
		Students: schema.StudentsFromTitle(form.Title, opts.TitlePrefix),
	}

	var instructor *float64
	var peers []float64
	for _, resp := range responses {
		classified, err := ClassifyResponse(resp, form.Questions, opts.InstructorMatricule, log)
		if err != nil {
			return grade, fmt.Errorf("form %s: %w", form.ID, err)
		}
		total := float64(classified.Total())
		log.Debugf("Matricule: %s | Grade: %v", classified.Matricule, total)
		if classified.Instructor {
			if instructor != nil {
				log.Warnf("Form %s has several instructor responses, keeping the last one", form.ID)
			}
			instructor = &total
			continue
		}
		peers = append(peers, total)
	}
	if instructor == nil {
		return grade, fmt.Errorf("form %s (%s): %w", form.ID, grade.Students, schema.ErrMissingInstructor)
	}

	avg, peerMean, ok := WeightedAverage(*instructor, peers, opts.InstructorWeight)
	if !ok {
		log.Warnf("Form %s (%s) has no peer responses, using the instructor grade", form.ID, grade.Students)
	}
	grade.InstructorGrade = *instructor
	grade.PeerMean = peerMean
	grade.PeerCount = len(peers)
	grade.Grade = avg
	return grade, nil
}

// CriterionAverages computes the weighted average of each question between first and last
// (0-based, inclusive, in form order). Non-numeric answers are ignored.
func CriterionAverages(form schema.Form, responses []schema.FormResponse, first, last int, opts GradeOptions, log *contract.Logger) ([]schema.CriterionAverage, error) {
	if first < 0 || last >= len(form.Questions) || first > last {
		return nil, fmt.Errorf("criteria range [%d, %d] is outside the %d questions of form %s", first, last, len(form.Questions), form.ID)
	}

	classified := make([]schema.ClassifiedResponse, 0, len(responses))
	for _, resp := range responses {
		c, err := ClassifyResponse(resp, form.Questions, opts.InstructorMatricule, log)
		if err != nil {
			return nil, err
		}
		classified = append(classified, c)
	}

	averages := make([]schema.CriterionAverage, 0, last-first+1)
	for _, q := range form.Questions[first : last+1] {
		avg := schema.CriterionAverage{Title: q.Title}
		var peers []float64
		for i, resp := range responses {
			value, err := strconv.ParseFloat(strings.TrimSpace(resp.Answers[q.ID]), 64)
			if err != nil {
				continue
			}
			if classified[i].Instructor {
				avg.Instructor = value
				continue
			}
			peers = append(peers, value)
		}
		avg.Weighted, avg.PeerMean, _ = WeightedAverage(avg.Instructor, peers, opts.InstructorWeight)
		averages = append(averages, avg)
	}
	return averages, nil
}
