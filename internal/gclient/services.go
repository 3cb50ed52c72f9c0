package gclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
	"google.golang.org/api/forms/v1"
	"google.golang.org/api/gmail/v1"
)

var (
	_ contract.FormsService  = &Client{} // Compile-time check
	_ contract.SheetsService = &Client{} // Compile-time check
	_ contract.Mailer        = &Client{} // Compile-time check
)

// folderFormsQuery selects the forms stored directly in a Drive folder.
func folderFormsQuery(folderID string) string {
	escaped := strings.ReplaceAll(folderID, `'`, `\'`)
	return fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false", escaped, schema.FormMimeType)
}

// ListFolderForms implements contract.FormsService.
func (c *Client) ListFolderForms(ctx context.Context, folderID string) ([]schema.Form, error) {
	var result []schema.Form
	pageToken := ""
	for {
		call := c.drive.Files.List().
			Q(folderFormsQuery(folderID)).
			Fields("nextPageToken, files(id, name)").
			OrderBy("name").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list files of folder %s: %w", folderID, err)
		}
		for _, file := range list.Files {
			form, err := c.GetForm(ctx, file.Id)
			if err != nil {
				return nil, err
			}
			if form.Title == "" {
				form.Title = file.Name
			}
			result = append(result, form)
		}
		if list.NextPageToken == "" {
			return result, nil
		}
		pageToken = list.NextPageToken
	}
}

// GetForm implements contract.FormsService.
func (c *Client) GetForm(ctx context.Context, formID string) (schema.Form, error) {
	f, err := c.forms.Forms.Get(formID).Context(ctx).Do()
	if err != nil {
		return schema.Form{}, fmt.Errorf("failed to get form %s: %w", formID, err)
	}
	return convertForm(f), nil
}

// convertForm keeps the fields needed for grading. Grid questions contribute one
// question per row, titled after the row.
func convertForm(f *forms.Form) schema.Form {
	form := schema.Form{ID: f.FormId, ResponderURI: f.ResponderUri}
	if f.Info != nil {
		form.Title = f.Info.Title
	}
	for _, item := range f.Items {
		switch {
		case item.QuestionItem != nil && item.QuestionItem.Question != nil:
			form.Questions = append(form.Questions, schema.Question{
				ID:    item.QuestionItem.Question.QuestionId,
				Title: item.Title,
			})
		case item.QuestionGroupItem != nil:
			for _, q := range item.QuestionGroupItem.Questions {
				title := item.Title
				if q.RowQuestion != nil {
					title = q.RowQuestion.Title
				}
				form.Questions = append(form.Questions, schema.Question{ID: q.QuestionId, Title: title})
			}
		}
	}
	return form
}

// ListResponses implements contract.FormsService.
func (c *Client) ListResponses(ctx context.Context, formID string) ([]schema.FormResponse, error) {
	var result []schema.FormResponse
	pageToken := ""
	for {
		call := c.forms.Forms.Responses.List(formID).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list responses of form %s: %w", formID, err)
		}
		for _, r := range list.Responses {
			result = append(result, convertResponse(r))
		}
		if list.NextPageToken == "" {
			return result, nil
		}
		pageToken = list.NextPageToken
	}
}

// convertResponse flattens text answers. Multi-valued answers are joined with ", ".
func convertResponse(r *forms.FormResponse) schema.FormResponse {
	resp := schema.FormResponse{ResponseID: r.ResponseId, Answers: make(map[string]string, len(r.Answers))}
	for qid, answer := range r.Answers {
		if answer.TextAnswers == nil {
			continue
		}
		values := make([]string, 0, len(answer.TextAnswers.Answers))
		for _, a := range answer.TextAnswers.Answers {
			values = append(values, a.Value)
		}
		resp.Answers[qid] = strings.Join(values, ", ")
	}
	return resp
}

// GetValues implements contract.SheetsService. Cells are returned in their formatted form.
func (c *Client) GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	vr, err := c.sheets.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s of spreadsheet %s: %w", readRange, spreadsheetID, err)
	}
	rows := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = fmt.Sprint(cell)
		}
	}
	return rows, nil
}

// Send implements contract.Mailer.
func (c *Client) Send(ctx context.Context, msg schema.Email) error {
	raw, err := buildMessage(c.sender, msg)
	if err != nil {
		return err
	}
	_, err = c.gmail.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", strings.Join(msg.To, ", "), err)
	}
	return nil
}
