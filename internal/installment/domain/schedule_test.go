package domain

import (
	"testing"
	"time"

	clientdomain "github.com/devlopes006/gestao-clientes/internal/client/domain"
	"gorm.io/datatypes"
)

func installmentClient(mutate func(*clientdomain.Client)) clientdomain.Client {
	start := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	c := clientdomain.Client{
		Name:             "Acme",
		Currency:         "BRL",
		ContractValue:    120000,
		ContractStart:    &start,
		IsInstallment:    true,
		InstallmentCount: 12,
	}
	if mutate != nil {
		mutate(&c)
	}
	return c
}

func TestBuildScheduleCountAndNumbering(t *testing.T) {
	entries := BuildSchedule(installmentClient(nil))
	if len(entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Number != i+1 {
			t.Fatalf("entry %d numbered %d", i, entry.Number)
		}
	}
}

func TestBuildScheduleSumsToContractValue(t *testing.T) {
	entries := BuildSchedule(installmentClient(func(c *clientdomain.Client) {
		c.ContractValue = 100000
		c.InstallmentCount = 3
	}))
	var total int64
	for _, entry := range entries {
		total += entry.Amount
	}
	if total != 100000 {
		t.Fatalf("schedule sums to %d, want 100000", total)
	}
	// Remainder lands on the final installment.
	if entries[0].Amount != 33333 || entries[2].Amount != 33334 {
		t.Fatalf("amounts = %d..%d, want 33333..33334", entries[0].Amount, entries[2].Amount)
	}
}

func TestBuildScheduleExplicitInstallmentValue(t *testing.T) {
	value := int64(9900)
	entries := BuildSchedule(installmentClient(func(c *clientdomain.Client) {
		c.InstallmentValue = &value
		c.InstallmentCount = 4
	}))
	for _, entry := range entries {
		if entry.Amount != 9900 {
			t.Fatalf("entry %d amount = %d, want 9900", entry.Number, entry.Amount)
		}
	}
}

func TestBuildScheduleClampsDayToMonthEnd(t *testing.T) {
	start := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	entries := BuildSchedule(installmentClient(func(c *clientdomain.Client) {
		c.ContractStart = &start
		c.PaymentDay = 31
		c.InstallmentCount = 4
	}))

	// Jan 31, Feb 28 (2025 is not a leap year), Mar 31, Apr 30.
	wantDays := []int{31, 28, 31, 30}
	for i, entry := range entries {
		if entry.DueDate.Day() != wantDays[i] {
			t.Fatalf("entry %d due on day %d, want %d", entry.Number, entry.DueDate.Day(), wantDays[i])
		}
		if last := daysInMonth(entry.DueDate); entry.DueDate.Day() > last {
			t.Fatalf("entry %d due day %d exceeds month length %d", entry.Number, entry.DueDate.Day(), last)
		}
	}
}

func TestBuildScheduleCyclesPaymentDays(t *testing.T) {
	entries := BuildSchedule(installmentClient(func(c *clientdomain.Client) {
		c.InstallmentCount = 5
		c.InstallmentPaymentDays = datatypes.JSONSlice[int]{5, 20}
	}))

	type due struct {
		month time.Month
		day   int
	}
	want := []due{
		{time.January, 5}, {time.January, 20},
		{time.February, 5}, {time.February, 20},
		{time.March, 5},
	}
	for i, entry := range entries {
		if entry.DueDate.Month() != want[i].month || entry.DueDate.Day() != want[i].day {
			t.Fatalf("entry %d due %v, want %v/%d", entry.Number, entry.DueDate, want[i].month, want[i].day)
		}
	}
}

func TestBuildScheduleDefaultsDayFromContractStart(t *testing.T) {
	entries := BuildSchedule(installmentClient(func(c *clientdomain.Client) {
		c.PaymentDay = 0
		c.InstallmentCount = 2
	}))
	for _, entry := range entries {
		if entry.DueDate.Day() != 15 {
			t.Fatalf("entry %d due on day %d, want contract start day 15", entry.Number, entry.DueDate.Day())
		}
	}
}

func TestBuildScheduleMissingTermsIsNoOp(t *testing.T) {
	cases := []func(*clientdomain.Client){
		func(c *clientdomain.Client) { c.IsInstallment = false },
		func(c *clientdomain.Client) { c.InstallmentCount = 0 },
		func(c *clientdomain.Client) { c.ContractValue = 0 },
		func(c *clientdomain.Client) { c.ContractStart = nil },
	}
	for i, mutate := range cases {
		if entries := BuildSchedule(installmentClient(mutate)); entries != nil {
			t.Fatalf("case %d: expected silent no-op, got %d entries", i, len(entries))
		}
	}
}
