package sqlinline

const QEnsureSchema = `--sql b516084b-4fc6-44c9-a50f-70e38c8c3fc5
create table if not exists prompt_history (
    id text primary key,
    prompt text not null unique,
    used_at timestamptz not null default now()
);
create index if not exists prompt_history_used_at_idx on prompt_history (used_at desc);
create table if not exists user_settings (
    key text primary key,
    value jsonb not null,
    updated_at timestamptz not null default now()
);
`
