package gclient

import (
	"context"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
	"github.com/stretchr/testify/mock"
)

// MockFormsService is a mock implementation of contract.FormsService.
type MockFormsService struct {
	mock.Mock
}

var _ contract.FormsService = &MockFormsService{} // Compile-time check

// ListFolderForms mocks the ListFolderForms method.
func (m *MockFormsService) ListFolderForms(ctx context.Context, folderID string) ([]schema.Form, error) {
	ret := m.Called(ctx, folderID)
	forms, _ := ret.Get(0).([]schema.Form)
	return forms, ret.Error(1)
}

// GetForm mocks the GetForm method.
func (m *MockFormsService) GetForm(ctx context.Context, formID string) (schema.Form, error) {
	ret := m.Called(ctx, formID)
	return ret.Get(0).(schema.Form), ret.Error(1)
}

// ListResponses mocks the ListResponses method.
func (m *MockFormsService) ListResponses(ctx context.Context, formID string) ([]schema.FormResponse, error) {
	ret := m.Called(ctx, formID)
	responses, _ := ret.Get(0).([]schema.FormResponse)
	return responses, ret.Error(1)
}

// MockSheetsService is a mock implementation of contract.SheetsService.
type MockSheetsService struct {
	mock.Mock
}

var _ contract.SheetsService = &MockSheetsService{} // Compile-time check

// GetValues mocks the GetValues method.
func (m *MockSheetsService) GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	ret := m.Called(ctx, spreadsheetID, readRange)
	rows, _ := ret.Get(0).([][]string)
	return rows, ret.Error(1)
}

// MockMailer is a mock implementation of contract.Mailer.
type MockMailer struct {
	mock.Mock
}

var _ contract.Mailer = &MockMailer{} // Compile-time check

// Send mocks the Send method.
func (m *MockMailer) Send(ctx context.Context, msg schema.Email) error {
	ret := m.Called(ctx, msg)
	return ret.Error(0)
}

// MockURLExpander is a mock implementation of contract.URLExpander.
type MockURLExpander struct {
	mock.Mock
}

var _ contract.URLExpander = &MockURLExpander{} // Compile-time check

// Expand mocks the Expand method.
func (m *MockURLExpander) Expand(ctx context.Context, shortURL string) (string, error) {
	ret := m.Called(ctx, shortURL)
	return ret.String(0), ret.Error(1)
}
