package concept

// Categories is the ordered category list with id lookup.
type Categories struct {
	list []Category
	byID map[string]int
}

// NewCategories indexes categories, keeping the first occurrence of a duplicated id.
func NewCategories(list []Category) Categories {
	c := Categories{byID: make(map[string]int, len(list))}
	for _, cat := range list {
		if cat.ID == "" {
			continue
		}
		if _, dup := c.byID[cat.ID]; dup {
			continue
		}
		c.byID[cat.ID] = len(c.list)
		c.list = append(c.list, cat)
	}
	return c
}

// List returns categories in workflow order.
func (c Categories) List() []Category { return c.list }

// IDs returns category ids in workflow order.
func (c Categories) IDs() []string {
	ids := make([]string, len(c.list))
	for i, cat := range c.list {
		ids[i] = cat.ID
	}
	return ids
}

// Has reports whether id is a configured category.
func (c Categories) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Position returns the workflow position of id, or len(list) when unknown.
func (c Categories) Position(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return len(c.list)
}

// Label returns the display label; unknown ids and OTHER map to "Other".
func (c Categories) Label(id string) string {
	if i, ok := c.byID[id]; ok && c.list[i].Label != "" {
		return c.list[i].Label
	}
	return "Other"
}

// Bucket maps a record's primary category to its display bucket.
func (c Categories) Bucket(primaryCategoryID string) string {
	if primaryCategoryID != "" && c.Has(primaryCategoryID) {
		return primaryCategoryID
	}
	return OtherCategoryID
}
