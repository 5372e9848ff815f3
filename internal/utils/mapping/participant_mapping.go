package mapping

import (
	"github.com/wesplit/wesplit_app/internal/core/domain"
	"github.com/wesplit/wesplit_app/internal/models"
)

// ToModelParticipant converts a domain Participant to a model Participant
func ToModelParticipant(d domain.Participant) models.Participant {
	return models.Participant{
		ExpenseID:   d.ExpenseID,
		MemberID:    d.MemberID,
		Status:      models.ParticipantStatus(d.Status),
		InvitedAt:   d.InvitedAt,
		RespondedAt: d.RespondedAt,
	}
}

// ToDomainParticipant converts a model Participant to a domain Participant
func ToDomainParticipant(m models.Participant) domain.Participant {
	return domain.Participant{
		ExpenseID:   m.ExpenseID,
		MemberID:    m.MemberID,
		Status:      domain.ParticipantStatus(m.Status),
		InvitedAt:   m.InvitedAt,
		RespondedAt: m.RespondedAt,
	}
}

// ToDomainParticipantSlice converts a slice of model Participants to domain Participants
func ToDomainParticipantSlice(ms []models.Participant) []domain.Participant {
	ds := make([]domain.Participant, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainParticipant(m)
	}
	return ds
}

// ToDomainBalanceEdge converts a model BalanceEdge to a domain BalanceEdge
func ToDomainBalanceEdge(m models.BalanceEdge) domain.BalanceEdge {
	return domain.BalanceEdge{
		GroupID:       m.GroupID,
		DebtorID:      m.DebtorID,
		CreditorID:    m.CreditorID,
		Amount:        m.Amount,
		LastUpdatedAt: m.LastUpdatedAt,
	}
}
