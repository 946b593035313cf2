// Package reload triggers fleet relaunches, either when the source Clash
// configuration changes on disk (FileWatcher) or on a cron schedule
// (Scheduler). Both call a Func; wrap it with Serialize when they share
// one so relaunches never overlap.
package reload
