package types

// Standard Newznab categories
// https://newznab.readthedocs.io/en/latest/misc/api/#predefined-categories
const (
	CategoryMovies = 2000
	CategoryAudio  = 3000
	CategoryPC     = 4000
	CategoryTV     = 5000
	CategoryBooks  = 7000
	CategoryOther  = 8000

	// TV subcategories
	CategoryTVForeign = 5010
	CategoryTVOther   = 5020
	CategoryTVSD      = 5030
	CategoryTVHD      = 5040
	CategoryTVUHD     = 5045
	CategoryTVSport   = 5060
	CategoryTVAnime   = 5070
	CategoryTVDoc     = 5080
)

var categoryNames = map[int]string{
	CategoryMovies:    "Movies",
	CategoryAudio:     "Audio",
	CategoryPC:        "PC",
	CategoryTV:        "TV",
	CategoryTVForeign: "TV/Foreign",
	CategoryTVOther:   "TV/Other",
	CategoryTVSD:      "TV/SD",
	CategoryTVHD:      "TV/HD",
	CategoryTVUHD:     "TV/UHD",
	CategoryTVSport:   "TV/Sport",
	CategoryTVAnime:   "TV/Anime",
	CategoryTVDoc:     "TV/Documentary",
	CategoryBooks:     "Books",
	CategoryOther:     "Other",
}

// CategoryName returns a human-readable name for a category.
func CategoryName(id int) string {
	if name, ok := categoryNames[id]; ok {
		return name
	}
	return "Unknown"
}

// DefaultCategoryMappings returns the system default category set, used
// when a remote indexer does not advertise its own taxonomy.
func DefaultCategoryMappings() []CategoryMapping {
	ids := []int{
		CategoryTV,
		CategoryTVForeign,
		CategoryTVOther,
		CategoryTVSD,
		CategoryTVHD,
		CategoryTVUHD,
		CategoryTVSport,
		CategoryTVAnime,
		CategoryTVDoc,
	}
	mappings := make([]CategoryMapping, 0, len(ids))
	for _, id := range ids {
		parent := 0
		if id != CategoryTV {
			parent = CategoryTV
		}
		mappings = append(mappings, CategoryMapping{
			ID:       id,
			Name:     CategoryName(id),
			ParentID: parent,
		})
	}
	return mappings
}
