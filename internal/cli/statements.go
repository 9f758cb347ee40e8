package cli

import "truth-or-twist/internal/domain"

// fallbackStatements is the built-in bank used when no Postgres bank is configured.
// `seed` writes the same set into Postgres for a given week.
func fallbackStatements() []domain.Statement {
	return []domain.Statement{
		{Text: "The Great Wall of China is not visible from space with the naked eye.", Answer: domain.AnswerTrue, Explanation: "The wall is too narrow to see from orbit without optical aid.", Difficulty: "easy"},
		{Text: "Honey never expires - archaeologists found 3000-year-old honey still edible.", Answer: domain.AnswerTrue, Explanation: "Honey's low moisture and acidic pH prevent bacterial growth indefinitely.", Difficulty: "easy"},
		{Text: "A day on Venus is shorter than a year on Venus.", Answer: domain.AnswerTwist, Explanation: "A Venus day (243 Earth days) is actually longer than its year (225 Earth days).", Difficulty: "easy"},
		{Text: "Octopuses have three hearts and blue blood.", Answer: domain.AnswerTrue, Explanation: "Two hearts pump to the gills, one to the body. Copper-based blood is blue.", Difficulty: "easy"},
		{Text: "The Eiffel Tower was built as a permanent Paris landmark.", Answer: domain.AnswerTwist, Explanation: "It was a temporary exhibit for the 1889 World's Fair, slated for demolition.", Difficulty: "easy"},
		{Text: "Bananas are technically berries, but strawberries are not.", Answer: domain.AnswerTrue, Explanation: "Botanically, bananas are berries; strawberries are accessory fruits.", Difficulty: "medium"},
		{Text: "Mount Everest is the tallest mountain measured from its base.", Answer: domain.AnswerTwist, Explanation: "Mauna Kea is taller base-to-peak; Everest wins only by sea-level height.", Difficulty: "medium"},
		{Text: "The human brain uses about 20% of the body's total energy.", Answer: domain.AnswerTrue, Explanation: "The brain is 2% of body weight but burns about 20% of all calories.", Difficulty: "medium"},
		{Text: "Lightning strikes the Earth about 100 times every second.", Answer: domain.AnswerTrue, Explanation: "Earth sees about 8 million strikes per day, roughly 100 per second.", Difficulty: "medium"},
		{Text: "Cleopatra lived closer in time to the Moon landing than to the Great Pyramid.", Answer: domain.AnswerTrue, Explanation: "Pyramids around 2560 BC, Cleopatra around 30 BC, Moon landing 1969 AD.", Difficulty: "hard"},
	}
}
