package topics

const (
	// Atividade de apostas da sessão (confirmações)
	BetActivity = "bet_activity"

	// Liquidações detectadas pelo settlement watcher
	BetSettled = "bet_settled"
)
