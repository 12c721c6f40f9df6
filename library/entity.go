package library

// Entity names a section of the console. The value doubles as the list path.
type Entity string

const (
	EntityDashboard  Entity = "dashboard"
	EntityBooks      Entity = "books"
	EntityAuthors    Entity = "authors"
	EntityPublishers Entity = "publishers"
	EntityUsers      Entity = "users"
	EntityLending    Entity = "lend"
)

// Entities lists the sections in menu order.
var Entities = []Entity{
	EntityDashboard,
	EntityBooks,
	EntityAuthors,
	EntityPublishers,
	EntityUsers,
	EntityLending,
}

// Title is the menu label of the section.
func (e Entity) Title() string {
	switch e {
	case EntityDashboard:
		return "Dashboard"
	case EntityBooks:
		return "Books"
	case EntityAuthors:
		return "Authors"
	case EntityPublishers:
		return "Publishers"
	case EntityUsers:
		return "Users"
	case EntityLending:
		return "Lend"
	default:
		return string(e)
	}
}

// Singular is used in prompts such as "delete this book?".
func (e Entity) Singular() string {
	switch e {
	case EntityBooks:
		return "book"
	case EntityAuthors:
		return "author"
	case EntityPublishers:
		return "publisher"
	case EntityUsers:
		return "user"
	case EntityLending:
		return "lending record"
	default:
		return string(e)
	}
}
