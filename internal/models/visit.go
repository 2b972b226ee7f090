package models

import (
	"time"
)

// Режимы ингеста: первый контакт и последующее раскрытие личности.
const (
	VisitModeCreate         = "create"
	VisitModeUpdateIdentity = "update_identity"
)

type VisitorLog struct {
	ID          string  `json:"id"`
	DeviceToken string  `json:"device_token"`
	LinkID      *string `json:"link_id,omitempty"`

	IP      string `json:"ip"`
	ISP     string `json:"isp"`
	Org     string `json:"org"`
	ASN     string `json:"asn"`
	Mobile  string `json:"mobile"`
	Proxy   string `json:"proxy"`
	Hosting string `json:"hosting"`

	City     string  `json:"city"`
	Region   string  `json:"region"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone"`

	Browser        string `json:"browser"`
	OS             string `json:"os"`
	CPUArch        string `json:"cpu_arch"`
	DeviceType     string `json:"device_type"`
	ConnectionType string `json:"connection_type"`

	Platform string `json:"platform"`

	VisitorEmail *string `json:"visitor_email,omitempty"`
	VisitorPhone *string `json:"visitor_phone,omitempty"`
	PlatformUser *string `json:"platform_user,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Link *SharedLink `json:"link,omitempty"`
}

type VisitCreateInput struct {
	DeviceToken string
	LinkID      *string
	Referrer    string

	IP      string
	ISP     string
	Org     string
	ASN     string
	Mobile  string
	Proxy   string
	Hosting string

	City     string
	Region   string
	Country  string
	Lat      float64
	Lon      float64
	Timezone string

	Browser        string
	OS             string
	CPUArch        string
	DeviceType     string
	ConnectionType string
}

type IdentityUpdateInput struct {
	DeviceToken  string
	LinkID       *string
	VisitorEmail string
	VisitorPhone string
	PlatformUser string
}
