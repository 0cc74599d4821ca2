package viewmodels

type LayoutData struct {
	Title     string
	CSRFToken string
	Toasts    ToastStackData
}

// ToastViewData is one entry of the toast stack. Flash toasts carried across
// a redirect only set Category, Title and Description.
type ToastViewData struct {
	ID          string `json:"id,omitempty"`
	Category    string `json:"category"`
	Icon        string `json:"icon,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Dismissing  bool   `json:"dismissing,omitempty"`
}

// ToastStackData is the toast container; it is only rendered once created.
type ToastStackData struct {
	ContainerCreated bool
	Toasts           []ToastViewData
}
