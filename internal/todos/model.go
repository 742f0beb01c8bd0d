// Package todos は Todo の保存と CRUD 処理を提供します。
package todos

import "time"

// MaxTitleLength はタイトルの最大文字数です。
const MaxTitleLength = 200

// Todo は保存される Todo レコードです。
type Todo struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Completed   bool      `db:"completed"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// IsOverdue は期限切れかどうかを返します。期限日は未実装のため常に false です。
func (t *Todo) IsOverdue() bool {
	return false
}

// View は API レスポンスとしての Todo 表現です。
type View struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsOverdue   bool      `json:"is_overdue"`
}

// ToView は Todo をレスポンス表現に変換します。
func ToView(t *Todo) View {
	return View{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		IsOverdue:   t.IsOverdue(),
	}
}

// CreateRequest は作成時に受け付けるフィールドです。
// title の空チェックと長さチェックは前後の空白を除いてから Manager で行う。
type CreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// UpdateRequest は更新時に受け付けるフィールドです。省略したフィールドは変更しません。
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}
