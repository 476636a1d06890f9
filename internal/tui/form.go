package tui

import (
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/aldema/pipeboard/internal/models"
)

// ============================================================================
// DEAL FORM
// ============================================================================

// Field order inside the form.
const (
	fieldTitle = iota
	fieldAmount
	fieldContact
	fieldOrg
	fieldDescription
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Amount ($)", "Contact", "Organization", "Description"}

// dealForm edits a new or existing deal. editingID is empty for creation;
// for edits, version pins the optimistic concurrency check downstream.
type dealForm struct {
	editingID string
	stageID   string
	inputs    [fieldCount]textinput.Model
	focus     int
	err       string
}

func newDealForm(stageID string) *dealForm {
	f := &dealForm{stageID: stageID}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = strings.ToLower(fieldLabels[i])
		ti.CharLimit = 200
		f.inputs[i] = ti
	}
	return f
}

// newEditForm pre-fills the form from the deal being edited.
func newEditForm(deal *models.Deal) *dealForm {
	f := newDealForm(deal.StageID)
	f.editingID = deal.ID
	f.inputs[fieldTitle].SetValue(deal.Title)
	f.inputs[fieldAmount].SetValue(strconv.FormatInt(deal.Amount/100, 10))
	f.inputs[fieldContact].SetValue(deal.ContactName)
	f.inputs[fieldOrg].SetValue(deal.OrgName)
	f.inputs[fieldDescription].SetValue(deal.Description)
	return f
}

func (f *dealForm) focusCmd() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[f.focus].Focus()
}

// amountCents parses the dollar field. Empty means zero.
func (f *dealForm) amountCents() (int64, bool) {
	raw := strings.TrimSpace(f.inputs[fieldAmount].Value())
	if raw == "" {
		return 0, true
	}
	dollars, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || dollars < 0 {
		return 0, false
	}
	return int64(dollars * 100), true
}

// openCreateForm opens an empty form targeting the cursor's stage.
func (m Model) openCreateForm() (tea.Model, tea.Cmd) {
	stage := m.currentStage()
	if stage == nil {
		return m.setBanner("info", "no stage to add a deal to"), nil
	}
	m.form = newDealForm(stage.ID)
	m.mode = modeForm
	return m, m.form.focusCmd()
}

// openEditForm opens the form pre-filled with the current deal.
func (m Model) openEditForm() (tea.Model, tea.Cmd) {
	deal := m.currentDeal()
	if deal == nil {
		return m, nil
	}
	m.form = newEditForm(deal)
	m.mode = modeForm
	return m, m.form.focusCmd()
}

// handleFormMode handles keyboard input while the deal form is open.
func (m Model) handleFormMode(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil {
		m.mode = modeNormal
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.form = nil
		m.mode = modeNormal
		return m, nil
	case "tab", "down":
		f.focus = (f.focus + 1) % fieldCount
		return m, f.focusCmd()
	case "shift+tab", "up":
		f.focus = (f.focus + fieldCount - 1) % fieldCount
		return m, f.focusCmd()
	case m.keys.SaveForm:
		return m.submitForm()
	case "enter":
		if f.focus == fieldCount-1 {
			return m.submitForm()
		}
		f.focus++
		return m, f.focusCmd()
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

// submitForm validates and fires the create or update mutation. The form
// closes immediately; the store shows the optimistic result and any
// failure arrives as a banner.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form

	title := strings.TrimSpace(f.inputs[fieldTitle].Value())
	if title == "" {
		f.err = "title is required"
		return m, nil
	}
	amount, ok := f.amountCents()
	if !ok {
		f.err = "amount must be a number"
		return m, nil
	}

	contact := strings.TrimSpace(f.inputs[fieldContact].Value())
	org := strings.TrimSpace(f.inputs[fieldOrg].Value())
	description := f.inputs[fieldDescription].Value()

	m.form = nil
	m.mode = modeNormal

	if f.editingID == "" {
		draft := models.DealDraft{
			Title:       title,
			Description: description,
			Amount:      amount,
			StageID:     f.stageID,
			ContactName: contact,
			OrgName:     org,
		}
		return m, m.createDealCmd(draft)
	}

	patch := models.DealPatch{
		Title:       &title,
		Description: &description,
		Amount:      &amount,
		ContactName: &contact,
		OrgName:     &org,
	}
	return m, m.updateDealCmd(f.editingID, patch)
}
