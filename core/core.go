// Package core has the grading, matching and mailing logic behind each command.
package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/internal/outwriter"
	"github.com/coursekit/coursekit/internal/sheetio"
	"github.com/coursekit/coursekit/schema"
)

// Services bundles the remote collaborators of the Google-backed commands.
type Services struct {
	Forms     contract.FormsService
	Sheets    contract.SheetsService
	Mailer    contract.Mailer
	Expander  contract.URLExpander
	Confirmer contract.Confirmer
}

// confirmPrompt is shown before each feedback email is sent.
const confirmPrompt = "Press [ENTER] to send, or type any text and then press [ENTER] to cancel. "

// ExecuteThresholds computes letter-grade cutoffs from a grades file and prints them.
func ExecuteThresholds(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, log *contract.Logger) error {
	start := time.Now()

	f, err := os.Open(cfg.GradesFile)
	if err != nil {
		return fmt.Errorf("failed to open grades file: %w", err)
	}
	defer func() { _ = f.Close() }()

	grades, err := ParseGrades(f, cfg.MaxGrade)
	if err != nil {
		return err
	}
	log.Debugf("Read %d grades from %s", len(grades), cfg.GradesFile)

	report := ComputeThresholds(grades, cfg.Thresholds, cfg.MaxGrade)

	if cfg.Record {
		RecordThresholdRun(ctx, mgr, cfg.Command, map[string]any{
			"grades_file": cfg.GradesFile,
			"max_grade":   cfg.MaxGrade,
			"thresholds":  len(cfg.Thresholds),
		}, report.Results, log)
	}

	return outwriter.WriteThresholds(report, cfg, time.Since(start))
}

// ExecuteFill copies values from the source grid into the destination grid by matricule
// and saves the result to the output file.
func ExecuteFill(_ context.Context, cfg *contract.Config, log *contract.Logger) error {
	start := time.Now()
	opts := sheetio.CSVOptions{Delimiter: cfg.Delimiter1, Encoding: cfg.Encoding}

	src, err := sheetio.Open(cfg.SourceFile, cfg.SheetSrc, opts)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer closeGrid(src)

	dst, err := sheetio.Open(cfg.DestFile, cfg.SheetDest, opts)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer closeGrid(dst)

	report, err := FillValues(src, dst, FillOptions{
		ColIDSrc:    cfg.ColIDSrc,
		ColValSrc:   cfg.ColValSrc,
		RowStartSrc: cfg.RowStartSrc,
		ColIDDest:   cfg.ColIDDest,
		ColValDest:  cfg.ColValDest,
	}, log)
	if err != nil {
		return err
	}
	if err := dst.Save(cfg.OutFile); err != nil {
		return fmt.Errorf("failed to save %s: %w", cfg.OutFile, err)
	}
	if len(report.Unmatched) > 0 {
		log.Warnf("%d id(s) not found in %s", len(report.Unmatched), cfg.DestFile)
	}

	return outwriter.WriteFillReport(report, cfg, time.Since(start))
}

func closeGrid(g contract.Grid) {
	if c, ok := g.(io.Closer); ok {
		_ = c.Close()
	}
}

// ExecuteCorrespond reports values of one CSV column missing from the other file's column.
func ExecuteCorrespond(_ context.Context, cfg *contract.Config, log *contract.Logger) error {
	start := time.Now()

	first, err := sheetio.ReadColumn(cfg.File1, cfg.Column1, sheetio.CSVOptions{Delimiter: cfg.Delimiter1, Encoding: cfg.Encoding})
	if err != nil {
		return err
	}
	second, err := sheetio.ReadColumn(cfg.File2, cfg.Column2, sheetio.CSVOptions{Delimiter: cfg.Delimiter2, Encoding: cfg.Encoding})
	if err != nil {
		return err
	}
	log.Debugf("Compared %d values against %d values", len(first), len(second))

	return outwriter.WriteCorrespondence(FindNonCorrespondence(first, second), cfg, time.Since(start))
}

// ExecuteOral grades every presentation form of the configured folder and records the run.
func ExecuteOral(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, svc Services, log *contract.Logger) error {
	start := time.Now()

	forms, err := svc.Forms.ListFolderForms(ctx, cfg.FormsFolderID)
	if err != nil {
		return fmt.Errorf("failed to list forms: %w", err)
	}
	if len(forms) == 0 {
		return fmt.Errorf("folder %s: %w", cfg.FormsFolderID, schema.ErrFormNotFound)
	}
	log.Infof("Found %d form(s) to grade", len(forms))

	ctx = beginRun(ctx, mgr, cfg.Command, map[string]any{
		"forms_folder_id":   cfg.FormsFolderID,
		"instructor_weight": cfg.InstructorWeight,
	}, log)

	opts := GradeOptions{
		InstructorMatricule: cfg.InstructorMatricule,
		InstructorWeight:    cfg.InstructorWeight,
		TitlePrefix:         cfg.FormTitlePrefix,
	}
	grades := make([]schema.OralGrade, 0, len(forms))
	for _, form := range forms {
		responses, err := svc.Forms.ListResponses(ctx, form.ID)
		if err != nil {
			return fmt.Errorf("failed to list responses of %s: %w", form.ID, err)
		}
		log.Debugf("Form %s: %d response(s)", form.Title, len(responses))
		grade, err := GradeForm(form, responses, opts, log)
		if err != nil {
			return err
		}
		recordOralGrade(ctx, mgr, grade, log)
		grades = append(grades, grade)
	}
	endRun(ctx, mgr, len(grades), log)

	return outwriter.WriteOralGrades(grades, cfg, time.Since(start))
}

// ExecuteFeedback gathers the feedback left on one presentation and emails it to its presenters.
func ExecuteFeedback(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, svc Services, log *contract.Logger) error {
	rows, err := svc.Sheets.GetValues(ctx, cfg.SpreadsheetID, cfg.SheetRange)
	if err != nil {
		return fmt.Errorf("failed to read presentation sheet: %w", err)
	}
	presentation, err := FindPresentation(rows, cfg.Matricule, PresentationColumns{
		Matricule:  cfg.SheetColMatricule,
		Matricule2: cfg.SheetColMatricule2,
		URL:        cfg.SheetColURL,
	})
	if err != nil {
		return err
	}

	formURL, err := cachedExpand(ctx, cacheStore(mgr), svc.Expander, presentation.FormURL)
	if err != nil {
		return fmt.Errorf("failed to expand %s: %w", presentation.FormURL, err)
	}
	log.Debugf("Form URL: %s", formURL)

	forms, err := svc.Forms.ListFolderForms(ctx, cfg.FormsFolderID)
	if err != nil {
		return fmt.Errorf("failed to list forms: %w", err)
	}
	form, err := MatchForm(forms, formURL)
	if err != nil {
		return err
	}
	feedbackQ, err := FindQuestion(form, cfg.FeedbackQuestionTitle)
	if err != nil {
		return err
	}
	matriculeQID := ""
	if cfg.MatriculeQuestionTitle != "" {
		if q, err := FindQuestion(form, cfg.MatriculeQuestionTitle); err != nil {
			log.Warnf("%v, recognizing the instructor from answers", err)
		} else {
			matriculeQID = q.ID
		}
	}

	responses, err := svc.Forms.ListResponses(ctx, form.ID)
	if err != nil {
		return fmt.Errorf("failed to list responses of %s: %w", form.ID, err)
	}
	feedback := CollectFeedback(form, responses, feedbackQ.ID, matriculeQID, cfg.InstructorMatricule, log)
	if len(feedback) == 0 {
		log.Warnf("No feedback found in form %s", form.Title)
	}

	var criteria []schema.CriterionAverage
	if cfg.Criteria {
		criteria, err = CriterionAverages(form, responses, cfg.CriteriaFirst, cfg.CriteriaLast, GradeOptions{
			InstructorMatricule: cfg.InstructorMatricule,
			InstructorWeight:    cfg.InstructorWeight,
		}, log)
		if err != nil {
			return err
		}
	}

	roster, err := sheetio.ReadRoster(cfg.RosterCSV, cfg.RosterColMatricule, cfg.RosterColEmail,
		sheetio.CSVOptions{Delimiter: cfg.RosterDelimiter, Encoding: cfg.Encoding})
	if err != nil {
		return err
	}

	presenters := []string{presentation.Matricule}
	if presentation.CoPresenter != "" {
		presenters = append(presenters, presentation.CoPresenter)
	}
	confirmer := svc.Confirmer
	if cfg.AssumeYes {
		confirmer = AlwaysConfirm{}
	}
	msgOpts := MessageOptions{
		CourseCode:       cfg.CourseCode,
		InstructorName:   cfg.InstructorName,
		InstructorWeight: cfg.InstructorWeight,
		Precision:        cfg.Precision,
	}

	for _, matricule := range presenters {
		to, err := LookupEmail(roster, matricule)
		if err != nil {
			return err
		}
		msg := BuildFeedbackMessage(to, feedback, criteria, msgOpts)
		if err := outwriter.WriteFeedbackMessage(msg, cfg); err != nil {
			return err
		}
		if cfg.DryRun {
			log.Infof("Dry run, email to %s not sent", to)
			continue
		}
		ok, err := confirmer.Confirm(confirmPrompt)
		if err != nil {
			return err
		}
		if !ok {
			log.Warnf("Email to %s not sent: %v", to, schema.ErrCancelled)
			continue
		}
		if err := svc.Mailer.Send(ctx, schema.Email{To: msg.To, Subject: msg.Subject, Body: msg.Body}); err != nil {
			return fmt.Errorf("failed to send feedback to %s: %w", to, err)
		}
		log.Infof("Feedback sent to %s", to)
	}
	return nil
}

// ExecuteAbstracts emails corrected abstracts to every student of the roster.
func ExecuteAbstracts(ctx context.Context, cfg *contract.Config, svc Services, log *contract.Logger) error {
	start := time.Now()

	roster, err := sheetio.ReadRoster(cfg.RosterCSV, cfg.RosterColMatricule, cfg.RosterColEmail,
		sheetio.CSVOptions{Delimiter: cfg.RosterDelimiter, Encoding: cfg.Encoding})
	if err != nil {
		return err
	}
	if len(roster) == 0 {
		return fmt.Errorf("roster %s: %w", cfg.RosterCSV, schema.ErrNoData)
	}

	outcomes, err := SendAbstracts(ctx, roster, svc.Mailer, AbstractOptions{
		Dir:            cfg.AttachmentDir,
		Pattern:        cfg.AttachmentPattern,
		Cc:             cfg.Cc,
		LogTo:          cfg.LogTo,
		Subject:        cfg.Subject,
		CourseCode:     cfg.CourseCode,
		InstructorName: cfg.InstructorName,
		DryRun:         cfg.DryRun,
	}, log)
	if err != nil {
		return err
	}
	return outwriter.WriteAbstractOutcomes(outcomes, cfg, time.Since(start))
}
