package engine

import (
	"github.com/sirupsen/logrus"
)

// Model is a fully built, ready-to-serve T5-family engine instance: the
// parameter tensors, the three device pools (permanent, ring A, ring B),
// the activation allocator budget, and the two persistent streams used by
// every encode/decode pass (spec §9 "Global state": "per-instance, not
// process-global").
type Model struct {
	cfg     Config
	backend Backend
	log     *logrus.Logger

	embedding *Embedding
	encBlocks []*EncoderBlock
	encNorm   *ParamLayer
	encNormW  *Tensor
	encPosBias *PositionBias

	encKV      *EncoderKVProjection
	decBlocks  []*DecoderBlock
	decNorm    *ParamLayer
	decNormW   *Tensor
	decPosBias *PositionBias
	lmHead     *LMHead

	planner *overlapPlanner

	permanentPool *ReusedAllocator
	poolA, poolB  *ReusedAllocator
	ringState     *overlapRingState

	calcStream, loadStream *Stream

	actCap int64

	encPermanent, decPermanent int
}

// Build constructs a Model from the builder's configuration: validates the
// config, lays out every parameter tensor, loads them via the configured
// Deserializer, plans the overlap ring pools, and uploads the permanent
// layers once. ResolveOverlapWindow must be called first if overlap is
// enabled and OverlapLayers was left at 0 ("auto").
func (b *ModelBuilder) Build() (*Model, error) {
	cfg := b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.OverlapEnabled && cfg.OverlapLayers == 0 {
		return nil, newErr(ErrBadConfig, "overlap enabled but OverlapLayers unresolved; call ResolveOverlapWindow first")
	}
	if b.deserializer == nil {
		return nil, newErr(ErrBadConfig, "model builder requires a Deserializer")
	}

	be := b.backend
	if be == nil {
		be = NewBackendFunc()
	}
	log := b.log
	if log == nil {
		log = logrus.StandardLogger()
	}

	m := &Model{cfg: cfg, backend: be, log: log}

	m.embedding = newEmbedding(cfg)
	m.encNormW = NewTensor(cfg.DimModel)
	m.encNorm = newParamLayer("encoder_final_norm", m.encNormW)
	m.encPosBias = newPositionBias(cfg, cfg.NumHeads, true)

	m.encBlocks = make([]*EncoderBlock, cfg.NumEncoderLayers)
	for i := range m.encBlocks {
		m.encBlocks[i] = newEncoderBlock(cfg)
	}

	allLayers := []*ParamLayer{m.embedding.ParamLayer, m.encNorm, m.encPosBias.ParamLayer}
	for _, blk := range m.encBlocks {
		allLayers = append(allLayers, blk.ParamLayer)
	}

	if !cfg.EncoderOnly {
		m.decNormW = NewTensor(cfg.DimModel)
		m.decNorm = newParamLayer("decoder_final_norm", m.decNormW)
		m.decPosBias = newPositionBias(cfg, cfg.NumHeads, false)
		m.lmHead = newLMHead(cfg)
		m.encKV = newEncoderKVProjection(cfg)

		m.decBlocks = make([]*DecoderBlock, cfg.NumDecoderLayers)
		for i := range m.decBlocks {
			m.decBlocks[i] = newDecoderBlock(cfg)
		}

		allLayers = append(allLayers, m.decNorm, m.decPosBias.ParamLayer, m.lmHead.ParamLayer, m.encKV.ParamLayer)
		for _, blk := range m.decBlocks {
			allLayers = append(allLayers, blk.ParamLayer)
		}
	}

	for _, l := range allLayers {
		if err := b.deserializer.LoadInto(l); err != nil {
			return nil, wrapErr(ErrBadConfig, err, "loading layer %s", l.Name())
		}
	}

	mLayers := cfg.maxOverlapLayers()
	w := cfg.OverlapLayers
	if !cfg.OverlapEnabled {
		w = mLayers
	}
	if w < 1 {
		w = 1
	}
	perLayer := maxBlockBytes(m.encBlocks, m.decBlocks)
	planner, err := newOverlapPlanner(mLayers, w, perLayer)
	if err != nil {
		return nil, err
	}
	other := cfg.MemoryLimit - planner.totalBytes() - cfg.DynamicMemory
	if other < 0 {
		return nil, newErr(ErrInsufficientMemory, "overlap window W=%d needs %d bytes, only %d available after dynamic reservation %d", w, planner.totalBytes(), cfg.MemoryLimit-cfg.DynamicMemory, cfg.DynamicMemory)
	}
	m.planner = planner
	m.actCap = other

	m.encPermanent = planner.permanent
	if m.encPermanent > len(m.encBlocks) {
		m.encPermanent = len(m.encBlocks)
	}
	m.decPermanent = planner.permanent
	if m.decPermanent > len(m.decBlocks) {
		m.decPermanent = len(m.decBlocks)
	}

	m.permanentPool = NewReusedAllocator(int64(planner.permanent) * perLayer * 2)
	m.poolA = NewReusedAllocator(planner.poolABytes)
	m.poolB = NewReusedAllocator(planner.poolBBytes)
	m.ringState = newOverlapRingState()
	m.calcStream = NewStream("calc")
	m.loadStream = NewStream("load")

	for i := 0; i < m.encPermanent; i++ {
		if err := m.encBlocks[i].ToDevice(m.permanentPool, m.loadStream); err != nil {
			return nil, err
		}
	}
	for i := 0; i < m.decPermanent; i++ {
		if err := m.decBlocks[i].ToDevice(m.permanentPool, m.loadStream); err != nil {
			return nil, err
		}
	}
	if err := m.loadStream.Synchronize(); err != nil {
		return nil, wrapErr(ErrPrefetchFailed, err, "uploading permanent layers")
	}

	log.Infof("model built: Le=%d Ld=%d W=%d permanent=%d poolA=%d poolB=%d actCap=%d",
		cfg.NumEncoderLayers, cfg.NumDecoderLayers, w, planner.permanent, planner.poolABytes, planner.poolBBytes, m.actCap)

	return m, nil
}

func maxBlockBytes(enc []*EncoderBlock, dec []*DecoderBlock) int64 {
	var max int64
	for _, b := range enc {
		if b.NBytes() > max {
			max = b.NBytes()
		}
	}
	for _, b := range dec {
		if b.NBytes() > max {
			max = b.NBytes()
		}
	}
	return max
}

// Close releases the model's two persistent streams. It does not release
// device pool memory, which is owned by the process for the model's
// lifetime.
func (m *Model) Close() {
	m.calcStream.Close()
	m.loadStream.Close()
}
