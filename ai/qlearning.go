package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"snake-term/game/types"

	"golang.org/x/exp/rand"
)

// State is what the agent sees from the head.
type State struct {
	RelativeFoodDir [2]int  // sign of food offset (row, col); zero when there is no food
	FoodDistance    int     // Manhattan distance to food
	DangerDirs      [4]bool // Danger in each direction (up, right, down, left)
}

// NewState creates a new state with initialized values
func NewState(foodDir [2]int, foodDist int, dangers [4]bool) State {
	return State{
		RelativeFoodDir: foodDir,
		FoodDistance:    foodDist,
		DangerDirs:      dangers,
	}
}

func (s State) key() string {
	return fmt.Sprintf("%d%d%d%d%d%d",
		s.RelativeFoodDir[0]+1, s.RelativeFoodDir[1]+1,
		boolToInt(s.DangerDirs[Up]), boolToInt(s.DangerDirs[Right]),
		boolToInt(s.DangerDirs[Down]), boolToInt(s.DangerDirs[Left]))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Action is a move choice. The values line up with types.Direction.
type Action int

const (
	Up Action = iota
	Right
	Down
	Left
)

func (a Action) Direction() types.Direction {
	return types.Direction(a)
}

// ActionFor converts a direction into the matching action.
func ActionFor(d types.Direction) Action {
	return Action(d)
}

// Rewards
const (
	RewardFood    = 1.0
	RewardCloser  = 0.5
	RewardFarther = -0.3
	RewardDeath   = -1.0
)

type QTable map[string]map[Action]float64

// Agent is a tabular Q-learner with an epsilon-greedy policy.
type Agent struct {
	QTable         QTable
	LearningRate   float64
	Discount       float64
	Epsilon        float64
	InitialEpsilon float64
	MinEpsilon     float64
	EpsilonDecay   float64
	TotalReward    float64
	GamesPlayed    int

	rng *rand.Rand
}

func NewAgent(seed uint64) *Agent {
	return &Agent{
		QTable:         make(QTable),
		LearningRate:   0.1,
		Discount:       0.9,
		Epsilon:        0.1,
		InitialEpsilon: 0.1,
		MinEpsilon:     0.01,
		EpsilonDecay:   0.995,
		rng:            rand.New(rand.NewSource(seed)),
	}
}

// GetAction picks a random action with probability Epsilon, otherwise the
// best known one.
func (a *Agent) GetAction(state State) Action {
	if a.rng.Float64() < a.Epsilon {
		return Action(a.rng.Intn(4))
	}
	return a.BestAction(state)
}

// BestAction returns the highest valued action; ties go to the lowest.
func (a *Agent) BestAction(state State) Action {
	values := a.values(state.key())
	best := Up
	bestValue := math.Inf(-1)
	for action := Up; action <= Left; action++ {
		if values[action] > bestValue {
			bestValue = values[action]
			best = action
		}
	}
	return best
}

func (a *Agent) values(key string) map[Action]float64 {
	if _, exists := a.QTable[key]; !exists {
		a.QTable[key] = make(map[Action]float64)
		for action := Up; action <= Left; action++ {
			a.QTable[key][action] = 0
		}
	}
	return a.QTable[key]
}

// Update applies one Q-learning step. A terminal transition has no
// future value.
func (a *Agent) Update(state State, action Action, reward float64, next State, terminal bool) {
	maxNextQ := 0.0
	if !terminal {
		maxNextQ = math.Inf(-1)
		for _, value := range a.values(next.key()) {
			maxNextQ = math.Max(maxNextQ, value)
		}
	}

	values := a.values(state.key())
	currentQ := values[action]
	values[action] = currentQ + a.LearningRate*(reward+a.Discount*maxNextQ-currentQ)
	a.TotalReward += reward
}

// EndEpisode decays exploration after a finished game.
func (a *Agent) EndEpisode() {
	a.GamesPlayed++
	a.Epsilon = math.Max(a.MinEpsilon, a.InitialEpsilon*math.Pow(a.EpsilonDecay, float64(a.GamesPlayed)))
}

func (a *Agent) Exploration() float64 {
	return a.Epsilon
}

// Save implements Learner with the JSON Q-table.
func (a *Agent) Save(path string) error {
	return a.SaveQTable(path)
}

// Load implements Learner with the JSON Q-table.
func (a *Agent) Load(path string) error {
	return a.LoadQTable(path)
}

// SaveQTable writes the table as JSON, creating parent directories.
func (a *Agent) SaveQTable(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("create q-table dir: %w", err)
	}
	data, err := json.MarshalIndent(a.QTable, "", "  ")
	if err != nil {
		return fmt.Errorf("encode q-table: %w", err)
	}
	return os.WriteFile(filename, data, 0644)
}

// LoadQTable replaces the table with the one stored in filename.
func (a *Agent) LoadQTable(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	table := make(QTable)
	if err := json.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("decode q-table %s: %w", filename, err)
	}
	a.QTable = table
	return nil
}
