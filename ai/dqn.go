package ai

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const (
	BatchSize        = 32
	ReplayBufferSize = 5000
	HiddenLayerSize  = 16
	InputFeatures    = 7 // food direction (2), danger flags (4), closeness (1)
	OutputActions    = 4
	GradientClip     = 0.5
	TargetSync       = 200 // training steps between target network copies
)

// Transition is one step of experience.
type Transition struct {
	State     []float64
	Action    Action
	Reward    float64
	NextState []float64
	Done      bool
}

// ReplayBuffer is a fixed-size ring of transitions sampled uniformly.
type ReplayBuffer struct {
	buffer   []Transition
	maxSize  int
	position int
	size     int
	rng      *rand.Rand
}

func NewReplayBuffer(maxSize int, rng *rand.Rand) *ReplayBuffer {
	return &ReplayBuffer{
		buffer:  make([]Transition, maxSize),
		maxSize: maxSize,
		rng:     rng,
	}
}

// Add stores t, overwriting the oldest transition once full.
func (b *ReplayBuffer) Add(t Transition) {
	b.buffer[b.position] = t
	b.position = (b.position + 1) % b.maxSize
	if b.size < b.maxSize {
		b.size++
	}
}

func (b *ReplayBuffer) Len() int {
	return b.size
}

// Sample draws batchSize transitions with replacement.
func (b *ReplayBuffer) Sample(batchSize int) []Transition {
	if batchSize > b.size {
		batchSize = b.size
	}
	batch := make([]Transition, batchSize)
	for i := range batch {
		batch[i] = b.buffer[b.rng.Intn(b.size)]
	}
	return batch
}

// features flattens a State into the network input.
func features(s State) []float64 {
	f := make([]float64, InputFeatures)
	f[0] = float64(s.RelativeFoodDir[0])
	f[1] = float64(s.RelativeFoodDir[1])
	for i, danger := range s.DangerDirs {
		if danger {
			f[2+i] = 1
		}
	}
	f[6] = 1 / float64(1+s.FoodDistance)
	return f
}

// network is a one hidden layer perceptron compiled for a fixed batch.
// Single states are run in row 0 of an otherwise empty batch. The loss
// only counts cells where mask is 1, so a pure forward pass leaves the
// gradients at zero.
type network struct {
	g              *gorgonia.ExprGraph
	x, y, mask     *gorgonia.Node
	w1, b1, w2, b2 *gorgonia.Node
	pred           *gorgonia.Node
	predVal        gorgonia.Value
	vm             gorgonia.VM
	solver         gorgonia.Solver
}

func newNetwork(rng *rand.Rand, learningRate float64) (*network, error) {
	g := gorgonia.NewGraph()
	n := &network{g: g}

	n.x = gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(BatchSize, InputFeatures), gorgonia.WithName("x"))
	n.y = gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(BatchSize, OutputActions), gorgonia.WithName("y"))
	n.mask = gorgonia.NewMatrix(g, tensor.Float64, gorgonia.WithShape(BatchSize, OutputActions), gorgonia.WithName("mask"))

	n.w1 = gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(InputFeatures, HiddenLayerSize),
		gorgonia.WithName("w1"),
		gorgonia.WithValue(glorot(rng, InputFeatures, HiddenLayerSize)))
	n.b1 = gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(1, HiddenLayerSize),
		gorgonia.WithName("b1"),
		gorgonia.WithInit(gorgonia.Zeroes()))
	n.w2 = gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(HiddenLayerSize, OutputActions),
		gorgonia.WithName("w2"),
		gorgonia.WithValue(glorot(rng, HiddenLayerSize, OutputActions)))
	n.b2 = gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(1, OutputActions),
		gorgonia.WithName("b2"),
		gorgonia.WithInit(gorgonia.Zeroes()))

	hidden, err := gorgonia.Mul(n.x, n.w1)
	if err != nil {
		return nil, fmt.Errorf("hidden layer: %w", err)
	}
	if hidden, err = gorgonia.BroadcastAdd(hidden, n.b1, nil, []byte{0}); err != nil {
		return nil, fmt.Errorf("hidden bias: %w", err)
	}
	if hidden, err = gorgonia.Rectify(hidden); err != nil {
		return nil, fmt.Errorf("relu: %w", err)
	}
	out, err := gorgonia.Mul(hidden, n.w2)
	if err != nil {
		return nil, fmt.Errorf("output layer: %w", err)
	}
	if n.pred, err = gorgonia.BroadcastAdd(out, n.b2, nil, []byte{0}); err != nil {
		return nil, fmt.Errorf("output bias: %w", err)
	}
	gorgonia.Read(n.pred, &n.predVal)

	diff, err := gorgonia.Sub(n.pred, n.y)
	if err != nil {
		return nil, fmt.Errorf("loss: %w", err)
	}
	if diff, err = gorgonia.HadamardProd(diff, n.mask); err != nil {
		return nil, fmt.Errorf("loss mask: %w", err)
	}
	sq, err := gorgonia.Square(diff)
	if err != nil {
		return nil, fmt.Errorf("loss: %w", err)
	}
	loss, err := gorgonia.Mean(sq)
	if err != nil {
		return nil, fmt.Errorf("loss: %w", err)
	}
	if _, err := gorgonia.Grad(loss, n.learnables()...); err != nil {
		return nil, fmt.Errorf("gradients: %w", err)
	}

	n.vm = gorgonia.NewTapeMachine(g, gorgonia.BindDualValues(n.learnables()...))
	n.solver = gorgonia.NewAdamSolver(gorgonia.WithLearnRate(learningRate), gorgonia.WithClip(GradientClip))
	return n, nil
}

func glorot(rng *rand.Rand, in, out int) *tensor.Dense {
	limit := math.Sqrt(6 / float64(in+out))
	data := make([]float64, in*out)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return tensor.New(tensor.WithShape(in, out), tensor.WithBacking(data))
}

func (n *network) learnables() gorgonia.Nodes {
	return gorgonia.Nodes{n.w1, n.b1, n.w2, n.b2}
}

func (n *network) weights() map[string]*gorgonia.Node {
	return map[string]*gorgonia.Node{"w1": n.w1, "b1": n.b1, "w2": n.w2, "b2": n.b2}
}

// run binds one batch, executes the graph and returns the predictions.
func (n *network) run(x, y, mask []float64) ([]float64, error) {
	defer n.vm.Reset()
	bind := []struct {
		node *gorgonia.Node
		data []float64
		cols int
	}{
		{n.x, x, InputFeatures},
		{n.y, y, OutputActions},
		{n.mask, mask, OutputActions},
	}
	for _, b := range bind {
		t := tensor.New(tensor.WithShape(BatchSize, b.cols), tensor.WithBacking(b.data))
		if err := gorgonia.Let(b.node, t); err != nil {
			return nil, fmt.Errorf("bind %s: %w", b.node.Name(), err)
		}
	}
	if err := n.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("run network: %w", err)
	}
	return append([]float64(nil), n.predVal.Data().([]float64)...), nil
}

func (n *network) predict(x []float64) ([]float64, error) {
	return n.run(x, make([]float64, BatchSize*OutputActions), make([]float64, BatchSize*OutputActions))
}

func (n *network) train(x, y, mask []float64) error {
	if _, err := n.run(x, y, mask); err != nil {
		return err
	}
	return n.solver.Step(gorgonia.NodesToValueGrads(n.learnables()))
}

func (n *network) copyFrom(src *network) error {
	from := src.weights()
	for name, node := range n.weights() {
		if err := tensor.Copy(node.Value().(*tensor.Dense), from[name].Value().(*tensor.Dense)); err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
	}
	return nil
}

// DQNAgent approximates Q values with a small network trained from a
// replay buffer against a periodically synced target network.
type DQNAgent struct {
	online *network
	target *network
	replay *ReplayBuffer

	Discount       float64
	Epsilon        float64
	InitialEpsilon float64
	MinEpsilon     float64
	EpsilonDecay   float64
	GamesPlayed    int
	TrainSteps     int

	rng *rand.Rand
}

func NewDQNAgent(seed uint64) (*DQNAgent, error) {
	rng := rand.New(rand.NewSource(seed))
	online, err := newNetwork(rng, 0.005)
	if err != nil {
		return nil, err
	}
	target, err := newNetwork(rng, 0.005)
	if err != nil {
		return nil, err
	}
	if err := target.copyFrom(online); err != nil {
		return nil, err
	}
	return &DQNAgent{
		online:         online,
		target:         target,
		replay:         NewReplayBuffer(ReplayBufferSize, rng),
		Discount:       0.95,
		Epsilon:        1.0,
		InitialEpsilon: 1.0,
		MinEpsilon:     0.01,
		EpsilonDecay:   0.99,
		rng:            rng,
	}, nil
}

// QValues returns the online network's estimate for each action.
func (a *DQNAgent) QValues(state State) ([]float64, error) {
	x := make([]float64, BatchSize*InputFeatures)
	copy(x, features(state))
	out, err := a.online.predict(x)
	if err != nil {
		return nil, err
	}
	return out[:OutputActions], nil
}

// GetAction is epsilon greedy over QValues. A failed forward pass falls
// back to a random action.
func (a *DQNAgent) GetAction(state State) Action {
	if a.rng.Float64() < a.Epsilon {
		return Action(a.rng.Intn(OutputActions))
	}
	q, err := a.QValues(state)
	if err != nil {
		log.WithError(err).Warn("dqn forward pass failed")
		return Action(a.rng.Intn(OutputActions))
	}
	return Action(argmax(q))
}

// Update stores the transition and trains on one replay batch once the
// buffer holds enough experience.
func (a *DQNAgent) Update(state State, action Action, reward float64, next State, terminal bool) {
	a.replay.Add(Transition{
		State:     features(state),
		Action:    action,
		Reward:    reward,
		NextState: features(next),
		Done:      terminal,
	})
	if a.replay.Len() < BatchSize {
		return
	}
	if err := a.trainOnBatch(a.replay.Sample(BatchSize)); err != nil {
		log.WithError(err).Warn("dqn training step failed")
	}
}

func (a *DQNAgent) trainOnBatch(batch []Transition) error {
	states := make([]float64, BatchSize*InputFeatures)
	nextStates := make([]float64, BatchSize*InputFeatures)
	for i, t := range batch {
		copy(states[i*InputFeatures:], t.State)
		copy(nextStates[i*InputFeatures:], t.NextState)
	}

	nextQ, err := a.target.predict(nextStates)
	if err != nil {
		return err
	}

	targets := make([]float64, BatchSize*OutputActions)
	mask := make([]float64, BatchSize*OutputActions)
	for i, t := range batch {
		value := t.Reward
		if !t.Done {
			row := nextQ[i*OutputActions : (i+1)*OutputActions]
			value += a.Discount * row[argmax(row)]
		}
		cell := i*OutputActions + int(t.Action)
		targets[cell] = value
		mask[cell] = 1
	}

	if err := a.online.train(states, targets, mask); err != nil {
		return err
	}
	a.TrainSteps++
	if a.TrainSteps%TargetSync == 0 {
		return a.target.copyFrom(a.online)
	}
	return nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func (a *DQNAgent) EndEpisode() {
	a.GamesPlayed++
	a.Epsilon = math.Max(a.MinEpsilon, a.InitialEpsilon*math.Pow(a.EpsilonDecay, float64(a.GamesPlayed)))
}

func (a *DQNAgent) Exploration() float64 {
	return a.Epsilon
}

// Save writes the online weights with encoding/gob.
func (a *DQNAgent) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create weights dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create weights file: %w", err)
	}
	defer f.Close()

	weights := make(map[string]*tensor.Dense)
	for name, node := range a.online.weights() {
		weights[name] = node.Value().(*tensor.Dense)
	}
	if err := gob.NewEncoder(f).Encode(weights); err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}
	return nil
}

// Load replaces both networks' weights with the ones stored at path.
func (a *DQNAgent) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var weights map[string]*tensor.Dense
	if err := gob.NewDecoder(f).Decode(&weights); err != nil {
		return fmt.Errorf("decode weights %s: %w", path, err)
	}
	for name, node := range a.online.weights() {
		w, ok := weights[name]
		if !ok {
			return fmt.Errorf("weights %s: missing %s", path, name)
		}
		dst := node.Value().(*tensor.Dense)
		if !dst.Shape().Eq(w.Shape()) {
			return fmt.Errorf("weights %s: %s has shape %v, want %v", path, name, w.Shape(), dst.Shape())
		}
		if err := tensor.Copy(dst, w); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return a.target.copyFrom(a.online)
}
