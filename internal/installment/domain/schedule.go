package domain

import (
	"time"

	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"github.com/devlopes006/gestao-clientes/pkg/money"
)

// BuildSchedule derives the installment schedule from contract terms.
// It returns nil when any required term is missing: contracts without
// installment data simply have no schedule.
//
// Amount policy: when no explicit installment value is set, the
// contract value is divided evenly and the division remainder is
// absorbed by the final installment, so the schedule always sums to
// the contract value exactly.
func BuildSchedule(client clientdomain.Client) []ScheduleEntry {
	if !client.IsInstallment || client.InstallmentCount <= 0 ||
		client.ContractValue <= 0 || client.ContractStart == nil {
		return nil
	}

	count := client.InstallmentCount
	amounts := make([]int64, count)
	if client.InstallmentValue != nil && *client.InstallmentValue > 0 {
		for i := range amounts {
			amounts[i] = *client.InstallmentValue
		}
	} else {
		parts := money.New(client.ContractValue, client.Currency).SplitEven(count)
		for i, part := range parts {
			amounts[i] = part.Amount()
		}
	}

	start := client.ContractStart.UTC()
	days := make([]int, 0, len(client.InstallmentPaymentDays))
	for _, day := range client.InstallmentPaymentDays {
		if day >= 1 && day <= 31 {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		day := client.PaymentDay
		if day < 1 || day > 31 {
			day = start.Day()
		}
		days = []int{day}
	}

	entries := make([]ScheduleEntry, count)
	for i := 0; i < count; i++ {
		// Cycle through the configured days before advancing the month.
		monthOffset := i / len(days)
		day := days[i%len(days)]
		entries[i] = ScheduleEntry{
			Number:  i + 1,
			Amount:  amounts[i],
			DueDate: dueDateFor(start, monthOffset, day),
		}
	}
	return entries
}

// dueDateFor places the due day in the target month, clamping to the
// month's last day when the configured day does not exist there.
func dueDateFor(start time.Time, monthOffset, day int) time.Time {
	year, month, _ := start.Date()
	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, monthOffset, 0)
	if last := daysInMonth(firstOfTarget); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
