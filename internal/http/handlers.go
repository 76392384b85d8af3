package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/services"
)

const readyTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Body(map[string]string{"status": "ok", "message": "SpendWise API is running"}).
		Write(w)
}

// handleReady pings the database.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.expenses.Ready(ctx); err != nil {
		s.logFailure(r, "Readiness check failed", err, applog.ErrorTypeDatabase, applog.OpReady)
		NewJSONResponse().
			Status(http.StatusServiceUnavailable).
			Body(map[string]string{"status": "not_ready", "error": "database unavailable"}).
			Write(w)
		return
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	req, err := ParseCreateExpense(w, r)
	if err != nil {
		s.logRejected(r, "Rejected create body", err, applog.ErrorTypeValidation, applog.OpCreate)
		BadRequestError("Invalid request body").Write(w)
		return
	}

	draft, err := core.NewDraft(req.ItemName, req.Amount)
	if err != nil {
		s.logRejected(r, "Rejected expense", err, applog.ErrorTypeValidation, applog.OpCreate)
		BadRequestError(err.Error()).Write(w)
		return
	}

	exp, err := s.expenses.CreateExpense(r.Context(), draft)
	if err != nil {
		s.logFailure(r, "Failed to add expense", err, applog.ErrorTypeDatabase, applog.OpCreate)
		InternalServerError("Failed to add expense to database").Write(w)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogExpenseCreated(r.Context(), exp.ID, exp.ItemName, exp.Amount.String())

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(map[string]any{"message": "Expense added successfully", "expense": exp}).
		Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items, err := s.expenses.ListExpenses(r.Context())
	if err != nil {
		s.logFailure(r, "Failed to fetch expenses", err, applog.ErrorTypeDatabase, applog.OpList)
		InternalServerError("Failed to fetch expenses from database").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{"expenses": items}).Write(w)
}

func (s *Server) handleTotalSpending(w http.ResponseWriter, r *http.Request) {
	total, err := s.expenses.TotalSpending(r.Context())
	if err != nil {
		s.logFailure(r, "Failed to calculate total spending", err, applog.ErrorTypeDatabase, applog.OpTotal)
		InternalServerError("Failed to calculate total spending").Write(w)
		return
	}
	NewJSONResponse().
		Body(map[string]any{"total": json.Number(total.String())}).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(r.PathValue("id"))
	if err != nil {
		s.logRejected(r, "Rejected expense id", err, applog.ErrorTypeValidation, applog.OpDelete)
		BadRequestError(err.Error()).Write(w)
		return
	}

	_, err = s.expenses.DeleteExpense(r.Context(), id)
	switch {
	case errors.Is(err, services.ErrExpenseNotFound):
		s.logRejected(r, "Expense not found", err, applog.ErrorTypeNotFound, applog.OpDelete)
		NotFoundError("Expense not found").Write(w)
		return
	case err != nil:
		s.logFailure(r, "Failed to delete expense", err, applog.ErrorTypeDatabase, applog.OpDelete)
		InternalServerError("Failed to delete expense from database").Write(w)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogExpenseDeleted(r.Context(), id)

	NewJSONResponse().
		Body(map[string]any{"message": "Expense deleted successfully", "id": id}).
		Write(w)
}

func (s *Server) logFailure(r *http.Request, msg string, err error, errorType, op string) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogError(r.Context(), msg, err, applog.ComponentHTTP, op, applog.NewFields().WithErrorType(errorType))
}

func (s *Server) logRejected(r *http.Request, msg string, err error, errorType, op string) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogRejected(r.Context(), msg, err, errorType, op)
}
