package card

const (
	CardInvalid Card = 0
	CardRear    Card = 0xFF
)

// Spade 黑桃
const (
	CardSpadeA Card = 0x01
	CardSpade7 Card = 0x07
	CardSpade8 Card = 0x08
	CardSpade9 Card = 0x09
	CardSpadeT Card = 0x0A
	CardSpadeJ Card = 0x0B
	CardSpadeQ Card = 0x0C
	CardSpadeK Card = 0x0D
)

// Heart 红心
const (
	CardHeartA Card = 0x11
	CardHeart7 Card = 0x17
	CardHeart8 Card = 0x18
	CardHeart9 Card = 0x19
	CardHeartT Card = 0x1A
	CardHeartJ Card = 0x1B
	CardHeartQ Card = 0x1C
	CardHeartK Card = 0x1D
)

// Club 梅花
const (
	CardClubA Card = 0x21
	CardClub7 Card = 0x27
	CardClub8 Card = 0x28
	CardClub9 Card = 0x29
	CardClubT Card = 0x2A
	CardClubJ Card = 0x2B
	CardClubQ Card = 0x2C
	CardClubK Card = 0x2D
)

// Diamond 方块
const (
	CardDiamondA Card = 0x31
	CardDiamond7 Card = 0x37
	CardDiamond8 Card = 0x38
	CardDiamond9 Card = 0x39
	CardDiamondT Card = 0x3A
	CardDiamondJ Card = 0x3B
	CardDiamondQ Card = 0x3C
	CardDiamondK Card = 0x3D
)

// DeckSize is the number of cards in a 29 deck.
const DeckSize = 32

// TotalPoints is the sum of card points over the whole deck.
const TotalPoints = 28

// NewDeck returns the 32 cards in canonical order (suit major, strength minor).
func NewDeck() CardList {
	deck := make(CardList, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, New(r, s))
		}
	}
	return deck
}
