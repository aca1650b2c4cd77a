// Package model содержит доменные сущности магазина орхидей.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Названия ролей, заведённые в справочнике при миграции.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Role описывает роль учётной записи.
type Role struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;not null;uniqueIndex" json:"name"`
}

// Account представляет зарегистрированного пользователя магазина.
type Account struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Email        string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	RoleID       int64     `gorm:"not null;index" json:"roleId"`
	Role         *Role     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"role,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Category описывает категорию орхидей. Имя категории уникально.
type Category struct {
	ID      int64    `gorm:"primaryKey" json:"id"`
	Name    string   `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Orchids []Orchid `gorm:"foreignKey:CategoryID" json:"orchids,omitempty"`
}

// Orchid описывает товар каталога.
type Orchid struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:100;not null;index" json:"name"`
	Description string          `gorm:"size:255;not null;default:''" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"price"`
	IsNatural   bool            `gorm:"not null;default:false" json:"isNatural"`
	URL         string          `gorm:"size:255;not null;default:''" json:"url"`
	CategoryID  int64           `gorm:"not null;index" json:"categoryId"`
	Category    *Category       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
}

// Статусы заказа, которыми оперирует сервис. Остальные значения
// устанавливаются явным обновлением статуса.
const (
	OrderStatusPending   = "Pending"
	OrderStatusCancelled = "Cancelled"
)

// Order описывает заказ пользователя. TotalAmount фиксируется при создании.
type Order struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	AccountID   int64           `gorm:"not null;index" json:"accountId"`
	Account     *Account        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"account,omitempty"`
	OrderDate   time.Time       `gorm:"type:date;not null;index" json:"orderDate"`
	Status      string          `gorm:"size:20;not null;index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"totalAmount"`
	Details     []OrderDetail   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"details"`
}

// OrderDetail описывает строку заказа. Price хранит цену орхидеи на момент заказа.
// OrchidID обнуляется при удалении орхидеи, строка заказа сохраняется.
type OrderDetail struct {
	ID       int64           `gorm:"primaryKey" json:"id"`
	OrderID  int64           `gorm:"not null;index" json:"orderId"`
	OrchidID *int64          `gorm:"index" json:"orchidId"`
	Orchid   *Orchid         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"orchid,omitempty"`
	Quantity int             `gorm:"not null" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"price"`
}

// Subtotal возвращает стоимость строки заказа.
func (d OrderDetail) Subtotal() decimal.Decimal {
	return d.Price.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// All перечисляет модели в порядке создания таблиц.
func All() []any {
	return []any{
		&Role{},
		&Account{},
		&Category{},
		&Orchid{},
		&Order{},
		&OrderDetail{},
	}
}
