// Package swarmcore is the deterministic, tick-driven simulation core for
// a cooperative multi-agent swarm: agent state, a spatial index, flocking,
// formation control, leader-follower coordination, obstacle avoidance,
// behavior arbitration, a voting/consensus engine, task allocation, and a
// metrics sink all advance together once per call to Swarm.Tick.
//
// Swarm is the package's single external entry point; every other package
// under this module is an internal collaborator wired together by it. A
// host never touches agent.Store, voting.Engine, or the other
// collaborators directly — it calls Swarm's methods, which forward to
// scheduler.Scheduler in the fixed order the scheduler package documents.
//
//	cfg := swarmcore.DefaultConfiguration()
//	sw, err := swarmcore.New(cfg)
//	id, err := sw.Spawn(geom.Vector{X: 0, Y: 0}, 5.0, 50.0)
//	sw.Subscribe(swarmcore.MetricsSample, func(evt swarmcore.Event) { ... })
//	sw.Tick(1.0/60, now)
//
// No file formats, CLI flags, environment variables, or persisted state
// are part of this package; those, along with logging destinations and
// startup parameters, belong to the host embedding it.
package swarmcore
