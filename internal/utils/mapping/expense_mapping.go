package mapping

import (
	"github.com/wesplit/wesplit_app/internal/core/domain"
	"github.com/wesplit/wesplit_app/internal/models"
)

// ToModelExpense converts a domain Expense to a model Expense
func ToModelExpense(d domain.Expense) models.Expense {
	return models.Expense{
		ExpenseID:          d.ExpenseID,
		GroupID:            d.GroupID,
		PayerID:            d.PayerID,
		PayeeID:            d.PayeeID,
		Kind:               models.ExpenseKind(d.Kind),
		Amount:             d.Amount,
		Description:        d.Description,
		AcceptanceDeadline: d.AcceptanceDeadline,
		FinalizedAt:        d.FinalizedAt,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainExpense converts a model Expense to a domain Expense
func ToDomainExpense(m models.Expense) domain.Expense {
	return domain.Expense{
		ExpenseID:          m.ExpenseID,
		GroupID:            m.GroupID,
		PayerID:            m.PayerID,
		PayeeID:            m.PayeeID,
		Kind:               domain.ExpenseKind(m.Kind),
		Amount:             m.Amount,
		Description:        m.Description,
		AcceptanceDeadline: m.AcceptanceDeadline,
		FinalizedAt:        m.FinalizedAt,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}
