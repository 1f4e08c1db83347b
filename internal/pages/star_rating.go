package pages

// Star is one filled rating mark.
type Star struct{}

// StarRating returns one filled mark per rating point. Negative ratings yield none;
// there is no upper bound and no partial mark.
func StarRating(rating int) []Star {
	if rating <= 0 {
		return nil
	}
	return make([]Star, rating)
}
