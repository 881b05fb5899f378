package domain

// Models lists every table in migration order
func Models() []any {
	return []any{
		&User{},
		&Session{},
		&Client{},
		&Project{},
		&Task{},
		&Invoice{},
		&InvoiceItem{},
		&Expense{},
		&Subscription{},
		&FeatureRequest{},
		&Document{},
	}
}
