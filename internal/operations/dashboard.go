// Package operations collates everything that is due soon into day buckets.
package operations

import (
	"sort"
	"time"

	"project_hub/internal/domain"

	"github.com/shopspring/decimal"
)

// Kind identifies where an item came from
type Kind string

const (
	KindInvoice Kind = "invoice"
	KindProject Kind = "project"
	KindRenewal Kind = "renewal"
	KindTask    Kind = "task"
)

// Bucket keys, in display order
const (
	Overdue  = "overdue"
	Today    = "today"
	Tomorrow = "tomorrow"
	ThisWeek = "this_week"
	Later    = "later"
)

// DefaultHorizon is how many days ahead the dashboard looks when not told otherwise
const DefaultHorizon = 30

// MaxHorizon caps the look-ahead
const MaxHorizon = 365

var bucketLabels = []struct{ key, label string }{
	{Overdue, "Overdue"},
	{Today, "Today"},
	{Tomorrow, "Tomorrow"},
	{ThisWeek, "This week"},
	{Later, "Later"},
}

// Item is one thing that needs attention on a given day
type Item struct {
	Kind   Kind             `json:"kind"`
	ID     uint             `json:"id"`
	Title  string           `json:"title"`
	Due    time.Time        `json:"due"`
	Detail string           `json:"detail,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// Bucket groups the items due in a date range
type Bucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Items []Item `json:"items"`
}

// Dashboard is the collated view for one day
type Dashboard struct {
	Date    time.Time      `json:"date"`
	Horizon int            `json:"horizon"`
	Buckets []Bucket       `json:"buckets"`
	Counts  map[string]int `json:"counts"`
	Total   int            `json:"total"`
}

// Input carries the rows to collate. Today is read in its own location.
type Input struct {
	Today         time.Time
	Horizon       int
	Tasks         []domain.Task
	Invoices      []domain.Invoice
	Projects      []domain.Project
	Subscriptions []domain.Subscription
}

// Civil truncates t to its calendar date, expressed as UTC midnight
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ClampHorizon applies the default and the upper bound
func ClampHorizon(h int) int {
	if h <= 0 {
		return DefaultHorizon
	}
	if h > MaxHorizon {
		return MaxHorizon
	}
	return h
}

// BucketFor names the bucket of an item due `days` days from today; "" means beyond the horizon
func BucketFor(days, horizon int) string {
	switch {
	case days < 0:
		return Overdue
	case days == 0:
		return Today
	case days == 1:
		return Tomorrow
	case days < 7:
		return ThisWeek
	case days <= horizon:
		return Later
	}
	return ""
}

// Collate builds the dashboard
func Collate(in Input) *Dashboard {
	today := Civil(in.Today)
	horizon := ClampHorizon(in.Horizon)

	grouped := map[string][]Item{}
	add := func(it Item) {
		it.Due = Civil(it.Due)
		days := int(it.Due.Sub(today).Hours() / 24)
		if key := BucketFor(days, horizon); key != "" {
			grouped[key] = append(grouped[key], it)
		}
	}

	for _, t := range in.Tasks {
		if t.Status == domain.TaskDone || t.DueDate == nil {
			continue
		}
		add(Item{Kind: KindTask, ID: t.ID, Title: t.Title, Due: *t.DueDate, Detail: t.Priority})
	}
	for i := range in.Invoices {
		inv := &in.Invoices[i]
		if !inv.Outstanding() {
			continue
		}
		total := inv.Total()
		add(Item{Kind: KindInvoice, ID: inv.ID, Title: "Invoice " + inv.Number, Due: inv.DueDate, Detail: inv.Status, Amount: &total})
	}
	for i := range in.Projects {
		p := &in.Projects[i]
		if p.Status != domain.ProjectActive || p.DueDate == nil {
			continue
		}
		add(Item{Kind: KindProject, ID: p.ID, Title: p.Name, Due: *p.DueDate, Detail: p.Status})
	}
	for i := range in.Subscriptions {
		s := &in.Subscriptions[i]
		if s.Status != domain.SubscriptionActive {
			continue
		}
		// renewals are never overdue, only the next one counts
		next, ok := s.Schedule().Next(today)
		if !ok {
			continue
		}
		amount := s.Amount
		add(Item{Kind: KindRenewal, ID: s.ID, Title: s.Name, Due: next, Detail: s.Kind, Amount: &amount})
	}

	d := &Dashboard{Date: today, Horizon: horizon, Counts: map[string]int{}}
	for _, b := range bucketLabels {
		items := grouped[b.key]
		if items == nil {
			items = []Item{}
		}
		sort.SliceStable(items, func(i, j int) bool {
			if !items[i].Due.Equal(items[j].Due) {
				return items[i].Due.Before(items[j].Due)
			}
			if items[i].Kind != items[j].Kind {
				return items[i].Kind < items[j].Kind
			}
			return items[i].Title < items[j].Title
		})
		d.Buckets = append(d.Buckets, Bucket{Key: b.key, Label: b.label, Items: items})
		d.Counts[b.key] = len(items)
		d.Total += len(items)
	}
	return d
}

// Bucket returns the bucket with the given key
func (d *Dashboard) Bucket(key string) Bucket {
	for _, b := range d.Buckets {
		if b.Key == key {
			return b
		}
	}
	return Bucket{Key: key, Items: []Item{}}
}

// NeedsAttention reports whether anything is overdue or due today
func (d *Dashboard) NeedsAttention() bool {
	return d.Counts[Overdue]+d.Counts[Today] > 0
}
