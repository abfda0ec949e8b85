package groupbuy

import "time"

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 1000
	// MaxOrderQuantityCeiling bounds both a campaign's max quantity and any revealed quantity.
	MaxOrderQuantityCeiling int64 = 1_000_000
	MaxCampaignDuration           = 365 * 24 * time.Hour
	// DefaultOrderLifetime is the window between placement and the disclosure deadline.
	DefaultOrderLifetime = 7 * 24 * time.Hour
)

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryFashion     Category = "fashion"
	CategoryHome        Category = "home"
	CategoryFood        Category = "food"
	CategoryHealth      Category = "health"
	CategorySports      Category = "sports"
	CategoryBooks       Category = "books"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryFashion, CategoryHome, CategoryFood,
		CategoryHealth, CategorySports, CategoryBooks, CategoryOther:
		return true
	default:
		return false
	}
}

// Campaign is a group-purchase offer. Rows are never deleted, only deactivated.
type Campaign struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Organizer   string `gorm:"column:organizer;not null;index" json:"organizer"`
	Name        string `gorm:"column:name;not null" json:"name"`
	Description string `gorm:"column:description;not null" json:"description"`

	UnitPrice        int64    `gorm:"column:unit_price;not null" json:"unit_price"`
	MinOrderQuantity int64    `gorm:"column:min_order_quantity;not null" json:"min_order_quantity"`
	MaxOrderQuantity int64    `gorm:"column:max_order_quantity;not null" json:"max_order_quantity"`
	Category         Category `gorm:"column:category;not null;index" json:"category"`

	Deadline time.Time `gorm:"column:deadline;not null;index" json:"deadline"`
	Active   bool      `gorm:"column:active;not null" json:"active"`

	CurrentOrders  int64 `gorm:"column:current_orders;not null" json:"current_orders"`
	TotalCollected int64 `gorm:"column:total_collected;not null" json:"total_collected"`
	// EscrowBalance is what is still held for participants of this campaign.
	EscrowBalance int64 `gorm:"column:escrow_balance;not null" json:"-"`
	TargetReached bool  `gorm:"column:target_reached;not null" json:"target_reached"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Campaign) TableName() string { return "campaign" }

// IsTargetMet reports whether enough orders were placed to start processing. Once processing
// has begun it stays true.
func (c *Campaign) IsTargetMet() bool {
	return c != nil && (c.TargetReached || c.CurrentOrders >= c.MinOrderQuantity)
}

// AcceptsOrdersAt reports whether the campaign is open for placement at now.
func (c *Campaign) AcceptsOrdersAt(now time.Time) bool {
	return c != nil && c.Active && now.Before(c.Deadline)
}

// AggregateStats is the privacy-preserving per-campaign summary.
// ParticipantCount is monotonic and never decremented on cancellation.
type AggregateStats struct {
	CampaignID       uint64    `gorm:"primaryKey;autoIncrement:false" json:"campaign_id"`
	ParticipantCount int64     `gorm:"column:participant_count;not null" json:"participant_count"`
	QuantityHandle   string    `gorm:"column:quantity_handle;not null" json:"-"`
	AmountHandle     string    `gorm:"column:amount_handle;not null" json:"-"`
	TargetReached    bool      `gorm:"column:target_reached;not null" json:"target_reached"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (AggregateStats) TableName() string { return "aggregate_stats" }
