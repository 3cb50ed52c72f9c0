package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
)

// writeFeedbackText prints the headers and body of a feedback email.
func writeFeedbackText(w io.Writer, msg schema.FeedbackMessage, cfg *contract.Config) error {
	if _, err := contract.HeadingColor.Fprint(w, "To: "); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(msg.To, ", ")); err != nil {
		return err
	}
	if _, err := contract.HeadingColor.Fprint(w, "Subject: "); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, msg.Subject); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\n%s\n", msg.Body); err != nil {
		return err
	}
	if cfg.Detail {
		_, err := fmt.Fprintf(w, "(%d feedback entries, %d criteria)\n", len(msg.Feedback), len(msg.Criteria))
		return err
	}
	return nil
}

// writeFeedbackCSV writes the message as a single record.
func writeFeedbackCSV(w io.Writer, msg schema.FeedbackMessage) error {
	return writeCSVWithHeader(w, []string{"to", "subject", "body"}, func(cw *csv.Writer) error {
		return cw.Write([]string{strings.Join(msg.To, ";"), msg.Subject, msg.Body})
	})
}

// abstractStatus describes an outcome for the text table.
func abstractStatus(o schema.AbstractOutcome) string {
	switch {
	case o.Attachment == "":
		return contract.MissColor.Sprint("no abstract")
	case o.Sent:
		return contract.HitColor.Sprint("sent")
	default:
		return contract.WarnColor.Sprint("dry run")
	}
}

// writeAbstractsText prints one row per student and a sent count.
func writeAbstractsText(w io.Writer, outcomes []schema.AbstractOutcome, cfg *contract.Config, duration time.Duration) error {
	width := getMaxCellWidth(cfg, 50)
	data := make([][]string, 0, len(outcomes))
	sent := 0
	for _, o := range outcomes {
		if o.Sent {
			sent++
		}
		data = append(data, []string{o.Matricule, o.Email, contract.TruncateText(o.Attachment, width), abstractStatus(o)})
	}
	if err := renderTable(w, []string{"Matricule", "Email", "Attachment", "Status"}, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%sSent %d of %d abstracts in %v\n", emojiPrefix(cfg, "📨"), sent, len(outcomes), duration)
	return err
}

// writeAbstractsCSV writes one record per student.
func writeAbstractsCSV(w io.Writer, outcomes []schema.AbstractOutcome) error {
	header := []string{"matricule", "email", "attachment", "sent"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, o := range outcomes {
			if err := cw.Write([]string{o.Matricule, o.Email, o.Attachment, strconv.FormatBool(o.Sent)}); err != nil {
				return err
			}
		}
		return nil
	})
}
