package model

// PropertyStatus 房源状态
type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusSold      PropertyStatus = "sold"
	PropertyStatusRented    PropertyStatus = "rented"
	PropertyStatusInactive  PropertyStatus = "inactive"
)

// Property 房源（增删改由房源服务负责，这里只读）
type Property struct {
	BaseModel
	CompanyID    int            `gorm:"not null;index" json:"companyId"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Type         string         `gorm:"type:varchar(32)" json:"type"`    // casa, apartamento, terreno...
	Purpose      string         `gorm:"type:varchar(16)" json:"purpose"` // venda, aluguel
	Status       PropertyStatus `gorm:"type:varchar(16);default:'available';index" json:"status"`
	Price        float64        `gorm:"type:decimal(14,2)" json:"price"`
	Bedrooms     int            `json:"bedrooms"`
	Bathrooms    int            `json:"bathrooms"`
	ParkingSpots int            `json:"parkingSpots"`
	Area         float64        `json:"area"`
	Neighborhood string         `gorm:"type:varchar(128)" json:"neighborhood"`
	City         string         `gorm:"type:varchar(128)" json:"city"`
	State        string         `gorm:"type:varchar(64)" json:"state"`
	CoverImage   string         `gorm:"type:varchar(1024)" json:"coverImage"`
	Featured     bool           `gorm:"default:false" json:"featured"`
}

// TableName 指定表名
func (Property) TableName() string {
	return "properties"
}
