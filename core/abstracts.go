package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
)

// AbstractOptions describes one batch of corrected abstracts.
type AbstractOptions struct {
	Dir            string
	Pattern        string // file name with an {id} placeholder
	Cc             []string
	LogTo          []string
	Subject        string
	CourseCode     string
	InstructorName string
	DryRun         bool
}

// AbstractFileName returns the attachment name expected for a student.
func AbstractFileName(pattern, matricule string) string {
	return strings.ReplaceAll(pattern, "{id}", matricule)
}

func abstractBody(instructorName string) string {
	body := "Bonjour,\n\nVeuillez trouver ci-joint votre abstract avec corrections.\n\nCordialement,\n"
	if instructorName != "" {
		body += instructorName + "\n"
	}
	return body
}

// SendAbstracts emails each student of the roster its corrected abstract, then sends a summary
// of the batch to the log recipients. Students without an abstract are only logged.
func SendAbstracts(ctx context.Context, roster []schema.RosterEntry, mailer contract.Mailer, opts AbstractOptions, log *contract.Logger) ([]schema.AbstractOutcome, error) {
	outcomes := make([]schema.AbstractOutcome, 0, len(roster))
	var journal strings.Builder

	for _, student := range roster {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcome := schema.AbstractOutcome{Matricule: student.Matricule, Email: student.Email}
		name := AbstractFileName(opts.Pattern, student.Matricule)
		content, err := os.ReadFile(filepath.Join(opts.Dir, name))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			line := fmt.Sprintf("%s -- No abstract found for student id: %s", time.Now().Format(time.DateTime), student.Matricule)
			log.Warnf("%s", line)
			journal.WriteString(line + "\n")
			outcomes = append(outcomes, outcome)
			continue
		case err != nil:
			return outcomes, fmt.Errorf("failed to read abstract of %s: %w", student.Matricule, err)
		}
		outcome.Attachment = name

		if !opts.DryRun {
			msg := schema.Email{
				To:          []string{student.Email},
				Cc:          opts.Cc,
				Subject:     opts.Subject,
				Body:        abstractBody(opts.InstructorName),
				Attachments: []schema.Attachment{{Name: name, Content: content}},
			}
			if err := mailer.Send(ctx, msg); err != nil {
				return outcomes, fmt.Errorf("failed to send abstract to %s: %w", student.Email, err)
			}
			outcome.Sent = true
		}
		line := fmt.Sprintf("%s -- Abstract sent for student id: %s with email: %s", time.Now().Format(time.DateTime), student.Matricule, student.Email)
		if opts.DryRun {
			line = fmt.Sprintf("%s -- Abstract would be sent for student id: %s with email: %s", time.Now().Format(time.DateTime), student.Matricule, student.Email)
		}
		log.Infof("%s", line)
		journal.WriteString(line + "\n")
		outcomes = append(outcomes, outcome)
	}

	if opts.DryRun || len(opts.LogTo) == 0 {
		return outcomes, nil
	}
	summary := schema.Email{
		To:      opts.LogTo,
		Subject: fmt.Sprintf("ABSTRACT LOG - [%s] - %s", opts.CourseCode, time.Now().Format(time.DateOnly)),
		Body:    journal.String(),
	}
	if err := mailer.Send(ctx, summary); err != nil {
		return outcomes, fmt.Errorf("failed to send abstract log: %w", err)
	}
	return outcomes, nil
}
