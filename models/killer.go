package models

// KillerPlayer is one participant of a killer game.
type KillerPlayer struct {
	Name         string `json:"name"`
	Lives        int    `json:"lives"`
	IsEliminated bool   `json:"is_eliminated"`
}

// KillerState is the elimination variant layered on the current game.
// Terminal once at most one player is left un-eliminated.
type KillerState struct {
	Round    int            `json:"round"`
	MaxLives int            `json:"max_lives"`
	Players  []KillerPlayer `json:"players"`
}

// Survivors returns the players still in the game, in seat order.
func (k *KillerState) Survivors() []KillerPlayer {
	var alive []KillerPlayer
	for _, p := range k.Players {
		if !p.IsEliminated {
			alive = append(alive, p)
		}
	}
	return alive
}

// IsOver reports whether at most one player remains.
func (k *KillerState) IsOver() bool {
	return len(k.Survivors()) <= 1
}

// Winner returns the sole survivor's name, or "" while more than one player
// remains.
func (k *KillerState) Winner() string {
	alive := k.Survivors()
	if len(alive) == 1 {
		return alive[0].Name
	}
	return ""
}
