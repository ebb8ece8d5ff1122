// Package task_tools provides the MCP tools that read and change ClickUp tasks: CRUD,
// search, subtasks, comments, status, assignees, bulk updates, templates and task chains.
//
// Every tool that takes a task reference accepts an internal ID, a "#"-prefixed ID, a custom
// ID such as "gh-42" or a task URL, and resolves it through the server's resolver before
// calling ClickUp.
package task_tools
