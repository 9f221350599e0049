package gate

import "github.com/magabrotheeeer/minigestor/internal/entitlement"

// Region защищённая область экрана.
//
// Закрытая область сохраняет содержимое для размытого неинтерактивного
// отображения и несёт подсказку разблокировки.
type Region struct {
	Name        string  `json:"name"`
	Locked      bool    `json:"locked"`
	Interactive bool    `json:"interactive"`
	Content     any     `json:"content,omitempty"`
	Unlock      *Notice `json:"unlock,omitempty"`
}

// Guard оборачивает content в область name.
func Guard(name string, st entitlement.Status, content any) Region {
	if !st.Locked() {
		return Region{Name: name, Interactive: true, Content: content}
	}
	return Region{
		Name:        name,
		Locked:      true,
		Interactive: false,
		Content:     content,
		Unlock:      LockedNotice(),
	}
}
