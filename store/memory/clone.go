package memory

import (
	"github.com/billcore/regie/billing"
	"github.com/billcore/regie/campaign"
	"github.com/billcore/regie/credit"
	"github.com/billcore/regie/docket"
	"github.com/billcore/regie/invoice"
	"github.com/billcore/regie/payment"
	"github.com/billcore/regie/types"
)

// Clone helpers isolate callers from the store's internal state. Every
// read path returns a clone and every write path stores one, so mutating
// a returned entity never leaks into the store.

func cloneRegie(r *billing.Regie) *billing.Regie {
	cp := *r
	return &cp
}

func clonePaymentType(pt *billing.PaymentType) *billing.PaymentType {
	cp := *pt
	return &cp
}

func cloneCampaign(c *campaign.Campaign) *campaign.Campaign {
	cp := *c
	cp.Agendas = append([]string(nil), c.Agendas...)
	return &cp
}

func clonePool(p *campaign.Pool) *campaign.Pool {
	cp := *p
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}

func cloneAgendaUnlock(u *campaign.AgendaUnlock) *campaign.AgendaUnlock {
	cp := *u
	return &cp
}

func cloneState(st types.DocumentState) types.DocumentState {
	if st.Cancelled != nil {
		c := *st.Cancelled
		st.Cancelled = &c
	}
	return st
}

func cloneDraftLine(l *invoice.DraftLine) *invoice.DraftLine {
	cp := *l
	cp.Details.Dates = append([]string(nil), l.Details.Dates...)
	return &cp
}

func cloneDraftLines(lines []*invoice.DraftLine) []*invoice.DraftLine {
	out := make([]*invoice.DraftLine, len(lines))
	for i, l := range lines {
		out[i] = cloneDraftLine(l)
	}
	return out
}

func cloneLine(l *invoice.Line) *invoice.Line {
	cp := *l
	cp.Details.Dates = append([]string(nil), l.Details.Dates...)
	return &cp
}

func cloneLines(lines []*invoice.Line) []*invoice.Line {
	out := make([]*invoice.Line, len(lines))
	for i, l := range lines {
		out[i] = cloneLine(l)
	}
	return out
}

func cloneDraftInvoice(d *invoice.DraftInvoice) *invoice.DraftInvoice {
	cp := *d
	cp.Lines = cloneDraftLines(d.Lines)
	return &cp
}

func cloneInvoice(inv *invoice.Invoice) *invoice.Invoice {
	cp := *inv
	cp.State = cloneState(inv.State)
	cp.Lines = cloneLines(inv.Lines)
	return &cp
}

func cloneDraftCredit(d *credit.DraftCredit) *credit.DraftCredit {
	cp := *d
	cp.Lines = cloneDraftLines(d.Lines)
	return &cp
}

func cloneCredit(c *credit.Credit) *credit.Credit {
	cp := *c
	cp.State = cloneState(c.State)
	cp.Lines = cloneLines(c.Lines)
	return &cp
}

func cloneAssignment(a *credit.Assignment) *credit.Assignment {
	cp := *a
	return &cp
}

func clonePayment(p *payment.Payment) *payment.Payment {
	cp := *p
	cp.State = cloneState(p.State)
	return &cp
}

func cloneLinePayment(lp *payment.InvoiceLinePayment) *payment.InvoiceLinePayment {
	cp := *lp
	return &cp
}

func cloneCollectionDocket(d *docket.CollectionDocket) *docket.CollectionDocket {
	cp := *d
	cp.State = cloneState(d.State)
	return &cp
}

func clonePaymentDocket(d *docket.PaymentDocket) *docket.PaymentDocket {
	cp := *d
	cp.State = cloneState(d.State)
	cp.PaymentTypeSlugs = append([]string(nil), d.PaymentTypeSlugs...)
	return &cp
}
