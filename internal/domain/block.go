package domain

import "time"

type BlockType string

const (
	BlockTypeMarkdown BlockType = "markdown"
	BlockTypeImage    BlockType = "image"
	BlockTypeDatabase BlockType = "database"
	BlockTypeCode     BlockType = "code"
	BlockTypeChart    BlockType = "chart"
)

// Block is a rectangular element on a page canvas. Position and size are in
// grid units (see layout.Config); the engine never interprets Content.
type Block struct {
	ID        string    `json:"id"`
	PageID    string    `json:"pageId"`
	Type      BlockType `json:"type"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Content   string    `json:"content"`   // opaque payload, rendered by the frontend
	StyleJSON string    `json:"styleJson"` // colors, borders, etc.
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type BlockStore interface {
	CreateBlock(b *Block) error
	GetBlock(id string) (*Block, error)
	ListBlocks(pageID string) ([]Block, error)
	UpdateBlock(b *Block) error
	UpdateBlockPosition(id string, x, y, width, height int) error
	DeleteBlock(id string) error
	DeleteBlocksByPage(pageID string) error
	ReplacePageBlocks(pageID string, blocks []Block) error
}
