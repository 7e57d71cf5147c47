package genres

type ListGenresQuery struct {
	Page string `query:"page" json:"page" mod:"trim"`
}

// GenrePayload is the genre form.
type GenrePayload struct {
	Name string `json:"name" form:"name" mod:"trim" validate:"required,max=200"`
}
