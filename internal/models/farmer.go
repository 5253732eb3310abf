package models

import "time"

// Relationship of the farmer to the named relative.
const (
	RelationshipSonOf      = "SO"
	RelationshipDaughterOf = "DO"
	RelationshipWifeOf     = "WO"
)

// Farmer is the aggregate root: the farmer row plus its owned documents,
// bank details and land fields, always created and deleted together.
type Farmer struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	SurveyNumber  string `json:"surveyNumber" gorm:"uniqueIndex;type:varchar(11)"`
	Name          string `json:"name" gorm:"type:varchar(100)"`
	Relationship  string `json:"relationship" gorm:"type:varchar(10)"`
	Gender        string `json:"gender" gorm:"type:varchar(10)"`
	Community     string `json:"community" gorm:"type:varchar(50)"`
	AadharNumber  string `json:"aadharNumber" gorm:"uniqueIndex;type:varchar(12)"`
	ContactNumber string `json:"contactNumber" gorm:"type:varchar(10)"`

	State      string `json:"state" gorm:"type:varchar(100)"`
	District   string `json:"district" gorm:"type:varchar(100)"`
	Mandal     string `json:"mandal" gorm:"type:varchar(100)"`
	Village    string `json:"village" gorm:"type:varchar(100)"`
	Panchayath string `json:"panchayath" gorm:"type:varchar(100)"`

	DateOfBirth time.Time `json:"dateOfBirth"`
	Age         int       `json:"age"`

	Documents   FarmerDocuments `json:"documents" gorm:"constraint:OnDelete:CASCADE"`
	BankDetails BankDetails     `json:"bankDetails" gorm:"constraint:OnDelete:CASCADE"`
	Fields      []Field         `json:"fields" gorm:"constraint:OnDelete:CASCADE"`

	CreatedByID *uint `json:"createdById"`
	UpdatedByID *uint `json:"updatedById"`
	CreatedBy   *User `json:"createdBy,omitempty" gorm:"foreignKey:CreatedByID"`
	UpdatedBy   *User `json:"updatedBy,omitempty" gorm:"foreignKey:UpdatedByID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FarmerDocuments holds the three document slots. Each value is a bare
// filename resolved against its fixed storage folder, not a full path.
type FarmerDocuments struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	FarmerID      uint   `json:"farmerId" gorm:"uniqueIndex"`
	ProfilePicURL string `json:"profilePicUrl" gorm:"type:varchar(255)"`
	AadharDocURL  string `json:"aadharDocUrl" gorm:"type:varchar(255)"`
	BankDocURL    string `json:"bankDocUrl" gorm:"type:varchar(255)"`
}

// BankDetails is the farmer's bank account record.
type BankDetails struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	FarmerID      uint   `json:"farmerId" gorm:"uniqueIndex"`
	AccountNumber string `json:"accountNumber" gorm:"type:varchar(30)"`
	IFSCCode      string `json:"ifscCode" gorm:"type:varchar(11)"`
	BranchName    string `json:"branchName" gorm:"type:varchar(100)"`
	Address       string `json:"address" gorm:"type:varchar(255)"`
	BankName      string `json:"bankName" gorm:"type:varchar(100)"`
	BankCode      string `json:"bankCode" gorm:"type:varchar(20)"`
}

// Location is a GPS fix captured when the field was surveyed.
type Location struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Accuracy  float64  `json:"accuracy"`
	Altitude  *float64 `json:"altitude"`
	Timestamp int64    `json:"timestamp"`
}

// Field is one land field owned by a farmer. A farmer always has at least one.
type Field struct {
	ID              uint     `json:"id" gorm:"primaryKey"`
	FarmerID        uint     `json:"farmerId" gorm:"index"`
	AreaHa          float64  `json:"areaHa"`
	YieldEstimate   float64  `json:"yieldEstimate"`
	Location        Location `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	LandDocumentURL string   `json:"landDocumentUrl" gorm:"type:varchar(255)"`
}
