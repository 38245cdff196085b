package api

// Book is a book offered by the store.
type Book struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn,omitempty"`
	Pages     int    `json:"pages,omitempty"`
	Available bool   `json:"available"`
	Genre     string `json:"genre,omitempty"`
}

func (b *Book) GetID() string   { return b.ID }
func (b *Book) SetID(id string) { b.ID = id }

// BookPatch carries the fields of a partial book update. Nil fields keep
// their stored value.
type BookPatch struct {
	Title     *string `json:"title,omitempty"`
	Author    *string `json:"author,omitempty"`
	ISBN      *string `json:"isbn,omitempty"`
	Pages     *int    `json:"pages,omitempty"`
	Available *bool   `json:"available,omitempty"`
	Genre     *string `json:"genre,omitempty"`
}

// Apply merges the patch into b.
func (p *BookPatch) Apply(b *Book) {
	setString(&b.Title, p.Title)
	setString(&b.Author, p.Author)
	setString(&b.ISBN, p.ISBN)
	setString(&b.Genre, p.Genre)
	if p.Pages != nil {
		b.Pages = *p.Pages
	}
	if p.Available != nil {
		b.Available = *p.Available
	}
}

// Record is a music record offered by the store.
type Record struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Year      int    `json:"year,omitempty"`
	Available bool   `json:"available"`
	Genre     string `json:"genre,omitempty"`
}

func (r *Record) GetID() string   { return r.ID }
func (r *Record) SetID(id string) { r.ID = id }

// RecordPatch carries the fields of a partial record update.
type RecordPatch struct {
	Title     *string `json:"title,omitempty"`
	Artist    *string `json:"artist,omitempty"`
	Year      *int    `json:"year,omitempty"`
	Available *bool   `json:"available,omitempty"`
	Genre     *string `json:"genre,omitempty"`
}

// Apply merges the patch into r.
func (p *RecordPatch) Apply(r *Record) {
	setString(&r.Title, p.Title)
	setString(&r.Artist, p.Artist)
	setString(&r.Genre, p.Genre)
	if p.Year != nil {
		r.Year = *p.Year
	}
	if p.Available != nil {
		r.Available = *p.Available
	}
}

// User is a customer profile. Login secrets live in Credential.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (u *User) GetID() string   { return u.ID }
func (u *User) SetID(id string) { u.ID = id }

// Order is a purchase of a book by a user.
type Order struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	BookID        string `json:"bookId"`
	OrderDate     string `json:"orderDate,omitempty"`
	DeliveryDate  string `json:"deliveryDate,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

func (o *Order) GetID() string   { return o.ID }
func (o *Order) SetID(id string) { o.ID = id }

// UserWithOrders is the body of GET /users/{id}/orders.
type UserWithOrders struct {
	User
	Orders []*Order `json:"orders"`
}

// Credential is a stored login record. The ID doubles as the token subject.
type Credential struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"passwordHash"`
	Scopes       []string `json:"scopes,omitempty"`
}

func (c *Credential) GetID() string   { return c.ID }
func (c *Credential) SetID(id string) { c.ID = id }

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the success body of POST /login.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// BookResponse is the body of a successful book write.
type BookResponse struct {
	Message string `json:"message"`
	Book    *Book  `json:"book"`
}

// MessageResponse is a body carrying only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
