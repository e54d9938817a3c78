package httpserver

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type CartItemRequest struct {
	ProductID int64 `json:"productId" form:"productId"`
	Quantity  int   `json:"quantity" form:"quantity"`
}

type QuantityRequest struct {
	Quantity int `json:"quantity" form:"quantity"`
}

type SearchRequest struct {
	Query string `json:"q" form:"q"`
	Flush bool   `json:"flush" form:"flush"`
}

type PayRequest struct {
	Method string `json:"paymentMethod" form:"paymentMethod"`
}

type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

type FormPage struct {
	Title  string      `json:"title"`
	Action string      `json:"action"`
	Fields []FormField `json:"fields"`
	Links  []Link      `json:"links,omitempty"`
}

type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type Banner struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Image    string `json:"image"`
	CTA      string `json:"cta"`
}
