package models

import "time"

// Conversion stores one successful TypeScript to AdvPL translation.
// Rows are never updated; they are only created and deleted.
type Conversion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SourceText string    `gorm:"type:text;not null" json:"sourceText"`
	Result     string    `gorm:"type:text;not null" json:"result"`
	Model      string    `gorm:"index" json:"model"`
	Tokens     *int      `json:"tokens,omitempty"`
	ElapsedMs  *int64    `json:"elapsedMs,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

// ConversionSummary is the short form listed under recent conversions in stats.
type ConversionSummary struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ElapsedMs *int64    `json:"elapsedMs,omitempty"`
	Tokens    *int      `json:"tokens,omitempty"`
}

// Summary drops the text columns.
func (c Conversion) Summary() ConversionSummary {
	return ConversionSummary{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		ElapsedMs: c.ElapsedMs,
		Tokens:    c.Tokens,
	}
}

// ConversionStats holds aggregated statistics over all stored conversions.
type ConversionStats struct {
	TotalConversions int64               `json:"totalConversions"`
	TotalTokens      int64               `json:"totalTokens"`
	AverageLatency   int64               `json:"averageLatency"` // milliseconds, rounded
	LastConversions  []ConversionSummary `json:"lastConversions"`
}
