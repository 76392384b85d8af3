// Package console implements the expense console: an explicit view state with
// pure transitions, an HTTP client for the API and a controller that drives
// both.
package console

import "spendwise/internal/core"

// Phase is the progress of a mutating action.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
)

const (
	LabelAdd      = "Add Expense"
	LabelAdding   = "Adding..."
	LabelDelete   = "Delete"
	LabelDeleting = "Deleting..."

	MsgAdded   = "Expense added successfully!"
	MsgDeleted = "Expense deleted successfully!"
)

// ViewState is everything the console renders.
type ViewState struct {
	ItemName string
	Amount   string

	Expenses []core.Expense
	Total    core.Amount

	SubmitPhase Phase
	DeletePhase Phase
	DeletingID  int64

	Error   string
	Success string
	// BannerSeq increases every time a banner is shown, so a delayed clear
	// can tell whether its banner is still the current one.
	BannerSeq uint64
}

func SubmitStart(s ViewState) ViewState {
	s.SubmitPhase = PhaseSubmitting
	s.Error = ""
	s.Success = ""
	return s
}

// SubmitSuccess clears the form and shows the success banner.
func SubmitSuccess(s ViewState) ViewState {
	s.SubmitPhase = PhaseIdle
	s.ItemName = ""
	s.Amount = ""
	return showSuccess(s, MsgAdded)
}

func SubmitError(s ViewState, msg string) ViewState {
	s.SubmitPhase = PhaseIdle
	return showError(s, msg)
}

func DeleteStart(s ViewState, id int64) ViewState {
	s.DeletePhase = PhaseSubmitting
	s.DeletingID = id
	s.Error = ""
	s.Success = ""
	return s
}

func DeleteSuccess(s ViewState) ViewState {
	s.DeletePhase = PhaseIdle
	s.DeletingID = 0
	return showSuccess(s, MsgDeleted)
}

func DeleteError(s ViewState, msg string) ViewState {
	s.DeletePhase = PhaseIdle
	s.DeletingID = 0
	return showError(s, msg)
}

// FetchSuccess replaces list and total with the server's view.
func FetchSuccess(s ViewState, items []core.Expense, total core.Amount) ViewState {
	s.Expenses = append([]core.Expense(nil), items...)
	s.Total = total
	return s
}

func FetchError(s ViewState, msg string) ViewState {
	return showError(s, msg)
}

// ClearSuccess hides the success banner only if it is still banner seq.
func ClearSuccess(s ViewState, seq uint64) ViewState {
	if s.BannerSeq == seq {
		s.Success = ""
	}
	return s
}

func showSuccess(s ViewState, msg string) ViewState {
	s.Error = ""
	s.Success = msg
	s.BannerSeq++
	return s
}

func showError(s ViewState, msg string) ViewState {
	s.Success = ""
	s.Error = msg
	s.BannerSeq++
	return s
}

// SubmitLabel is the text of the add button.
func (s ViewState) SubmitLabel() string {
	if s.SubmitPhase == PhaseSubmitting {
		return LabelAdding
	}
	return LabelAdd
}

// DeleteLabel is the text of the delete button for row id.
func (s ViewState) DeleteLabel(id int64) string {
	if s.DeletePhase == PhaseSubmitting && s.DeletingID == id {
		return LabelDeleting
	}
	return LabelDelete
}

func (s ViewState) CanSubmit() bool { return s.SubmitPhase == PhaseIdle }

func (s ViewState) CanDelete() bool { return s.DeletePhase == PhaseIdle }
