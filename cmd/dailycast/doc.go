// Command dailycast ingests one licensed audio item per locale per day and
// republishes the collection as paginated podcast feeds.
package main
