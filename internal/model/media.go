package model

const (
	AssetMemoryCardImage = "MEMORY_CARD_IMAGE"
	AssetPuzzleImage     = "PUZZLE_IMAGE"
	AssetBabyPhoto       = "BABY_PHOTO"
	AssetVideo           = "VIDEO"
)

// swagger:model MediaAsset
type MediaAsset struct {
	BaseModel
	EventID       uint    `gorm:"not null;index" json:"eventId"`
	LevelID       *uint   `gorm:"index" json:"levelId,omitempty"`
	AssetType     string  `gorm:"size:100;not null" json:"assetType"`
	FileURL       string  `gorm:"size:500;not null" json:"fileUrl"`
	ThumbnailURL  *string `gorm:"size:500" json:"thumbnailUrl,omitempty"`
	DisplayOrder  int     `gorm:"default:0" json:"displayOrder"`
	AssetMetadata *string `gorm:"size:1000" json:"assetMetadata,omitempty"`
	ObjectKey     *string `gorm:"size:500" json:"-"` // 由本服务上传的对象，删除时一并清理
}

func (MediaAsset) TableName() string {
	return "media_assets"
}
