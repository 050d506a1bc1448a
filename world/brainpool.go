package world

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/neuralang/neural"
	"github.com/pthm-cable/neuralang/systems"
)

// brainJob captures one being's read-only forward inputs.
type brainJob struct {
	entity ecs.Entity
	id     uint32
	model  *neural.SumFx

	beings        []float32
	foodObstructs []float32
	speechlets    []float32
	self          [neural.NumSelfInputs]float32
}

func (j *brainJob) inputs() neural.Inputs {
	return neural.Inputs{
		Beings:        j.beings,
		FoodObstructs: j.foodObstructs,
		Speechlets:    j.speechlets,
		Self:          j.self[:],
	}
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	sumfx neural.SumFxScratch
}

// workChunk represents a range of jobs for a worker to process.
type workChunk struct {
	start, end int
}

// brainPool runs model forwards for all beings. Jobs are built
// single-threaded, computed in chunks across persistent workers and applied
// single-threaded in job order, so results do not depend on scheduling.
type brainPool struct {
	jobs       []brainJob
	outputs    [][neural.NumOutputs]float32
	scratches  []workerScratch
	numWorkers int
	threshold  int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newBrainPool(workers, threshold int) *brainPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &brainPool{
		numWorkers: workers,
		threshold:  threshold,
		scratches:  make([]workerScratch, workers),
		jobs:       make([]brainJob, 0, 128),
		outputs:    make([][neural.NumOutputs]float32, 0, 128),
	}
}

// start launches persistent worker goroutines.
func (p *brainPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stop signals all workers to exit and waits for them.
func (p *brainPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *brainPool) worker(id int) {
	defer p.wg.Done()
	scratch := &p.scratches[id]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.compute(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// compute runs the forwards for jobs [i0, i1).
func (p *brainPool) compute(i0, i1 int, scratch *workerScratch) {
	for i := i0; i < i1; i++ {
		job := &p.jobs[i]
		job.model.Forward(job.inputs(), p.outputs[i][:], &scratch.sumfx)
	}
}

// run computes all jobs, in parallel once there are at least threshold of them.
func (p *brainPool) run() {
	n := len(p.jobs)
	if cap(p.outputs) < n {
		p.outputs = make([][neural.NumOutputs]float32, n)
	}
	p.outputs = p.outputs[:n]
	if n == 0 {
		return
	}

	if n < p.threshold || p.numWorkers == 1 {
		p.compute(0, n, &p.scratches[0])
		return
	}

	p.start()
	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for wi := 0; wi < p.numWorkers; wi++ {
		start := wi * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// runBrains builds a job per being, closing every perception set with a
// sentinel row and filling the self row, then runs the pool.
func (w *World) runBrains() {
	p := &w.p
	pool := w.pool
	pool.jobs = pool.jobs[:0]
	beingWidth := w.modelCfg.Being.In()

	q := w.beingFilter.Query()
	for q.Next() {
		pos, rot, _, b, senses := q.Get()

		senses.Beings = systems.AppendSentinel(senses.Beings, beingWidth)
		senses.FoodObstructs = systems.AppendSentinel(senses.FoodObstructs, neural.NumFoodObstructInputs)
		senses.Speechlets = systems.AppendSentinel(senses.Speechlets, neural.SpeechletLen)

		job := brainJob{
			entity:        q.Entity(),
			id:            b.ID,
			model:         w.models[b.ID],
			beings:        senses.Beings,
			foodObstructs: senses.FoodObstructs,
			speechlets:    senses.Speechlets,
		}
		border := systems.BorderInSight(pos.X, pos.Y, rot.Heading, p.size, p.fov)
		systems.SelfRow(job.self[:0], border, b.Energy/p.startEnergy)
		pool.jobs = append(pool.jobs, job)
	}

	pool.run()

	if !w.captureActive {
		return
	}
	w.capture = nil
	for i := range pool.jobs {
		if job := &pool.jobs[i]; job.id == w.captureID {
			w.capture = job.model.ForwardWithCapture(job.inputs())
			w.captureSenses = [3]int{
				len(job.beings)/beingWidth - 1,
				len(job.foodObstructs)/neural.NumFoodObstructInputs - 1,
				len(job.speechlets)/neural.SpeechletLen - 1,
			}
			break
		}
	}
}
